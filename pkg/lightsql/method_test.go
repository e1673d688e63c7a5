package lightsql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		stmt string
		want Method
	}{
		{"SELECT * FROM users", MethodSelect},
		{"   select * from users   ", MethodSelect},
		{"SeLeCt * FrOm users", MethodSelect},
		{"SELECT*FROM users", MethodSelect},
		{"INSERT INTO users (name) VALUES (x)", MethodInsert},
		{"UPDATE users SET name = x", MethodUpdate},
		{"DELETE FROM users WHERE id = 1", MethodDelete},
		{"CREATE TABLE users (id INT)", MethodCreateTable},
		{"create\n  table users (id INT)", MethodCreateTable},
		{"CREATE INDEX idx ON users (name)", MethodCreateIndex},
		{"DROP TABLE users", MethodDrop},
		{"ALTER TABLE users ADD COLUMN age INT", MethodAlter},
		{"TRUNCATE TABLE users", MethodTruncate},
		{"UPDATE select SET x = 1", MethodUpdate},
		{"CREATE VIEW v AS SELECT 1", MethodNone},
		{"CREATE UNIQUE INDEX idx ON users (name)", MethodNone},
		{"WITH x AS (SELECT 1) SELECT * FROM x", MethodNone},
		{"(SELECT 1)", MethodNone},
		{"SELECTED FROM t", MethodNone},
		{"users SELECT", MethodNone},
		{"", MethodNone},
		{"   ", MethodNone},
	}

	for _, tt := range tests {
		t.Run(tt.stmt, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.stmt))
		})
	}
}
