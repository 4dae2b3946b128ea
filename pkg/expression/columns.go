package expression

import (
	"fmt"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver" // value expressions for the parser
)

// ColumnRefs returns the distinct column names a SQL scalar expression
// references, in order of first appearance.
func ColumnRefs(expression string) ([]string, error) {
	p := parser.New()
	stmts, _, err := p.Parse("SELECT "+expression+" FROM t", "", "")
	if err != nil {
		return nil, fmt.Errorf("failed to parse generated expression %q: %w", expression, err)
	}
	if len(stmts) != 1 {
		return nil, fmt.Errorf("generated expression %q must be a single expression", expression)
	}

	collector := &columnCollector{seen: make(map[string]bool)}
	stmts[0].Accept(collector)
	return collector.columns, nil
}

type columnCollector struct {
	columns []string
	seen    map[string]bool
}

func (c *columnCollector) Enter(in ast.Node) (ast.Node, bool) {
	if col, ok := in.(*ast.ColumnName); ok {
		name := col.Name.O
		if name != "" && !c.seen[name] {
			c.seen[name] = true
			c.columns = append(c.columns, name)
		}
	}
	return in, false
}

func (c *columnCollector) Leave(in ast.Node) (ast.Node, bool) {
	return in, true
}

// ValidateDDL parses a single schema-changing statement. Anything other than
// one ALTER/CREATE TABLE or CREATE DATABASE statement is rejected.
func ValidateDDL(sql string) error {
	p := parser.New()
	stmts, _, err := p.Parse(sql, "", "")
	if err != nil {
		return fmt.Errorf("DDL parse error: %w", err)
	}
	if len(stmts) != 1 {
		return fmt.Errorf("only single DDL statements are allowed")
	}
	switch stmts[0].(type) {
	case *ast.AlterTableStmt, *ast.CreateTableStmt, *ast.CreateDatabaseStmt:
		return nil
	default:
		return fmt.Errorf("statement type %T is not allowed in a schema migration", stmts[0])
	}
}
