package expression

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// PredicateEngine evaluates boolean expr-lang predicates with a compiled program cache
type PredicateEngine struct {
	programCache map[string]*vm.Program
	mu           sync.RWMutex
}

// NewPredicateEngine creates a new predicate engine
func NewPredicateEngine() *PredicateEngine {
	return &PredicateEngine{
		programCache: make(map[string]*vm.Program),
	}
}

// Match compiles (if needed) and runs a predicate against env
func (e *PredicateEngine) Match(predicate string, env map[string]interface{}) (bool, error) {
	program, err := e.getProgram(predicate, env)
	if err != nil {
		return false, err
	}

	output, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate predicate %q: %w", predicate, err)
	}
	matched, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("predicate %q returned %T, expected bool", predicate, output)
	}
	return matched, nil
}

// Check compiles a predicate against env without running it
func (e *PredicateEngine) Check(predicate string, env map[string]interface{}) error {
	_, err := e.getProgram(predicate, env)
	return err
}

func (e *PredicateEngine) getProgram(predicate string, env map[string]interface{}) (*vm.Program, error) {
	e.mu.RLock()
	if prog, ok := e.programCache[predicate]; ok {
		e.mu.RUnlock()
		return prog, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if prog, ok := e.programCache[predicate]; ok {
		return prog, nil
	}

	program, err := expr.Compile(predicate, expr.Env(env), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("failed to compile predicate %q: %w", predicate, err)
	}
	e.programCache[predicate] = program
	return program, nil
}
