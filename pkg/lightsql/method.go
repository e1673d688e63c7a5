package lightsql

// Method is the command keyword of a statement, in canonical upper case.
type Method string

// Recognized methods. MethodNone is returned for empty or unknown statements.
const (
	MethodNone        Method = ""
	MethodCreateTable Method = "CREATE TABLE"
	MethodCreateIndex Method = "CREATE INDEX"
	MethodSelect      Method = "SELECT"
	MethodInsert      Method = "INSERT"
	MethodUpdate      Method = "UPDATE"
	MethodDelete      Method = "DELETE"
	MethodDrop        Method = "DROP"
	MethodAlter       Method = "ALTER"
	MethodTruncate    Method = "TRUNCATE"
)

// methodPriority is checked in order. The two-word CREATE forms come first;
// a bare CREATE is deliberately absent.
var methodPriority = []struct {
	method  Method
	keyword keyword
}{
	{MethodCreateTable, newKeyword(string(MethodCreateTable))},
	{MethodCreateIndex, newKeyword(string(MethodCreateIndex))},
	{MethodSelect, newKeyword(string(MethodSelect))},
	{MethodInsert, newKeyword(string(MethodInsert))},
	{MethodUpdate, newKeyword(string(MethodUpdate))},
	{MethodDelete, newKeyword(string(MethodDelete))},
	{MethodDrop, newKeyword(string(MethodDrop))},
	{MethodAlter, newKeyword(string(MethodAlter))},
	{MethodTruncate, newKeyword(string(MethodTruncate))},
}

// Classify returns the method of a single statement.
//
// Only the first token counts: "SELECT * FROM t" is a SELECT, while
// "UPDATE select SET x = 1" is an UPDATE even though it mentions select.
func Classify(stmt string) Method {
	start := skipSpace(stmt, 0)
	for _, m := range methodPriority {
		if m.keyword.matchAt(stmt, start) >= 0 {
			return m.method
		}
	}
	return MethodNone
}

// String returns the keyword text.
func (m Method) String() string {
	return string(m)
}
