/*
 * SDBG - Source-level script debugger
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

/*
Package rewriter contains the instrumenting source-to-source transform of
SDBG. The rewriter inserts frame push/pop and per-statement checkpoint
callbacks into a parsed source unit and produces the two index structures
which the debugger uses at runtime.
*/
package rewriter

import (
	"fmt"

	"github.com/krotik/sdbg/parser"
	"github.com/krotik/sdbg/util"
)

/*
Names of the injected runtime API in generated code.
*/
const (
	FuncPushFrame  = "dbgPushFrame"
	FuncPopFrame   = "dbgPopFrame"
	FuncCheckpoint = "dbgCheckpoint"
	FuncMakeLocals = "dbgMakeLocals"
)

/*
Result is the output of a rewrite run.
*/
type Result struct {
	AST         *parser.ASTNode          // Instrumented AST
	Source      string                   // Pretty printed instrumented source
	Checkpoints util.CheckpointMap       // Positions of the original statements
	Methods     util.MethodCheckpointMap // Checkpoint ids per qualified method name
}

/*
localVar is a variable which is visible at a statement.
*/
type localVar struct {
	name string // Name of the variable
}

/*
rewriter holds the state of a single rewrite run.
*/
type rewriter struct {
	unit        string                   // Name of the source unit
	nextID      int                      // Next checkpoint id to allocate
	checkpoints util.CheckpointMap       // Collected checkpoint positions
	methods     util.MethodCheckpointMap // Collected per-method checkpoint ids
	usedNames   map[string]bool          // Qualified method names used so far
}

/*
Rewrite instruments a parsed source unit. The returned result contains the
instrumented AST, its pretty printed source and the checkpoint index
structures. The given AST is modified in place. Function bodies which are
already instrumented are left untouched.
*/
func Rewrite(unit string, ast *parser.ASTNode) (*Result, error) {

	if ast == nil {
		return nil, fmt.Errorf("Cannot rewrite empty AST")
	}

	rw := &rewriter{unit, 1, make(util.CheckpointMap),
		make(util.MethodCheckpointMap), make(map[string]bool)}

	// Only function bodies are instrumented - top-level statements run
	// once when the module is loaded

	if ast.Name == parser.NodeSTATEMENTS {
		for _, child := range ast.Children {
			rw.scanForFunctions(child, unit, nil)
		}
	} else {
		rw.scanForFunctions(ast, unit, nil)
	}

	src, err := parser.PrettyPrint(ast)

	if err != nil {
		return nil, err
	}

	return &Result{ast, src, rw.checkpoints, rw.methods}, nil
}

/*
scanForFunctions finds function definitions in a given subtree and
instruments their bodies. The scan does not descend into the bodies of
found functions - the instrumentation of a body recurses on its own.
*/
func (rw *rewriter) scanForFunctions(node *parser.ASTNode, qualifier string, captured []localVar) {

	if node == nil || isDebugAPICall(node) {

		// Generated calls carry closures which are not script methods

		return
	}

	if node.Name == parser.NodeFUNC {
		rw.instrumentFunction(node, qualifier, captured)
		return
	}

	for _, child := range node.Children {
		rw.scanForFunctions(child, qualifier, captured)
	}
}

/*
instrumentFunction instruments a single function definition: every statement
of its body is prefixed with a checkpoint call and the body is wrapped so
that a frame is pushed on entry and popped on every exit path.
*/
func (rw *rewriter) instrumentFunction(fn *parser.ASTNode, qualifier string, captured []localVar) {
	body := fn.Children[len(fn.Children)-1]

	if body.Name != parser.NodeSTATEMENTS {

		// Declaration without a body

		return
	}

	if isWrappedBody(body) {

		// The body has been instrumented before - never wrap twice

		return
	}

	name := rw.methodName(fn, qualifier)
	rw.methods[name] = []int{}

	params := paramVars(fn)

	// Locals generated code can see: parameters first then visible locals

	visible := append(append([]localVar{}, params...), captured...)

	rw.instrumentBlock(body, name, params, &visible)

	// Wrap the instrumented body so the frame pop runs on every exit path

	pushCall := identCall(FuncPushFrame, strNode(name))
	popCall := identCall(FuncPopFrame)

	tryStmts := newNode(parser.NodeSTATEMENTS, nil)
	tryStmts.Children = append([]*parser.ASTNode{pushCall}, body.Children...)

	finallyStmts := newNode(parser.NodeSTATEMENTS, nil)
	finallyStmts.Children = []*parser.ASTNode{popCall}

	finally := newNode(parser.NodeFINALLY, newToken(parser.TokenFINALLY, "finally", false))
	finally.Children = []*parser.ASTNode{finallyStmts}

	try := newNode(parser.NodeTRY, newToken(parser.TokenTRY, "try", false))
	try.Children = []*parser.ASTNode{tryStmts, finally}

	body.Children = []*parser.ASTNode{try}
}

/*
instrumentBlock inserts checkpoint calls into a statement block and recurses
into nested blocks. The visible set is extended as declarations are seen.
*/
func (rw *rewriter) instrumentBlock(block *parser.ASTNode, method string,
	params []localVar, visible *[]localVar) {

	instrumented := make([]*parser.ASTNode, 0, len(block.Children)*2)

	for _, stmt := range block.Children {

		if isDebugAPICall(stmt) {

			// Never instrument previously injected calls

			instrumented = append(instrumented, stmt)
			continue
		}

		id := rw.nextID
		rw.nextID++

		// The map records the position of the original statement - its
		// leftmost token, not the token of the statement node itself

		pos := leftmostToken(stmt)

		rw.checkpoints[id] = util.CheckpointPos{
			Source: tokenSource(stmt, rw.unit),
			Line:   pos.Lline,
			Pos:    pos.Lpos,
		}
		rw.methods[method] = append(rw.methods[method], id)

		locals, err := rw.localsAt(params, *visible)

		if err != nil {

			// If the analysis fails the provider only lists the parameters

			locals, _ = rw.localsAt(params, params)
		}

		instrumented = append(instrumented, checkpointCall(id, method, locals), stmt)

		// Declarations of this statement become visible to following ones

		*visible = append(*visible, declaredVars(stmt)...)

		rw.instrumentSubBlocks(stmt, method, params, visible)

		// Function definitions inside this statement are their own methods

		rw.scanForFunctions(stmt, method, append([]localVar{}, *visible...))
	}

	block.Children = instrumented
}

/*
instrumentSubBlocks recurses into the nested statement blocks of a single
statement without re-entering the top-level method transform.
*/
func (rw *rewriter) instrumentSubBlocks(stmt *parser.ASTNode, method string,
	params []localVar, visible *[]localVar) {

	switch stmt.Name {

	case parser.NodeIF:

		// Children are guard / statements pairs

		for offset := 0; offset+1 < len(stmt.Children); offset += 2 {
			branchVisible := append([]localVar{}, *visible...)
			rw.instrumentBlock(stmt.Children[offset+1], method, params, &branchVisible)
		}

	case parser.NodeLOOP:

		loopVisible := append([]localVar{}, *visible...)

		if head := stmt.Children[0]; head.Name == parser.NodeIN {

			// Loop variables flow into the body

			loopVisible = append(loopVisible, targetVars(head.Children[0])...)
		}

		rw.instrumentBlock(stmt.Children[1], method, params, &loopVisible)

	case parser.NodeTRY:

		tryVisible := append([]localVar{}, *visible...)
		rw.instrumentBlock(stmt.Children[0], method, params, &tryVisible)

		for _, child := range stmt.Children[1:] {

			if child.Name == parser.NodeEXCEPT {
				exceptVisible := append([]localVar{}, *visible...)

				// The error variable is visible inside the except block

				for _, ec := range child.Children {
					if ec.Name == parser.NodeAS {
						exceptVisible = append(exceptVisible, localVar{ec.Children[0].Token.Val})
					} else if ec.Name == parser.NodeIDENTIFIER && len(ec.Children) == 0 {
						exceptVisible = append(exceptVisible, localVar{ec.Token.Val})
					}
				}

				rw.instrumentBlock(child.Children[len(child.Children)-1], method,
					params, &exceptVisible)

			} else if child.Name == parser.NodeFINALLY {
				finallyVisible := append([]localVar{}, *visible...)
				rw.instrumentBlock(child.Children[0], method, params, &finallyVisible)
			}
		}
	}
}

/*
localsAt builds the locals provider closure for a statement. Parameters come
first, then the visible locals, deduplicated by name preserving the first
occurrence.
*/
func (rw *rewriter) localsAt(params []localVar, visible []localVar) (*parser.ASTNode, error) {
	var pairs []*parser.ASTNode

	seen := make(map[string]bool)

	addVar := func(v localVar) error {
		if !parser.NamePattern.MatchString(v.name) {
			return fmt.Errorf("Invalid local variable name: %v", v.name)
		}

		if !seen[v.name] {
			seen[v.name] = true
			pair := newNode(parser.NodeLIST, nil)
			pair.Children = []*parser.ASTNode{strNode(v.name), identNode(v.name)}
			pairs = append(pairs, pair)
		}

		return nil
	}

	for _, p := range params {
		if err := addVar(p); err != nil {
			return nil, err
		}
	}
	for _, v := range visible {
		if err := addVar(v); err != nil {
			return nil, err
		}
	}

	// The provider is a parameterless closure which reads the live values
	// at invocation time

	makeLocals := identCall(FuncMakeLocals, pairs...)

	ret := newNode(parser.NodeRETURN, newToken(parser.TokenRETURN, "return", false))
	ret.Children = []*parser.ASTNode{makeLocals}

	retStmts := newNode(parser.NodeSTATEMENTS, nil)
	retStmts.Children = []*parser.ASTNode{ret}

	closure := newNode(parser.NodeFUNC, newToken(parser.TokenFUNC, "func", false))
	closure.Children = []*parser.ASTNode{newNode(parser.NodePARAMS, nil), retStmts}

	return closure, nil
}

/*
methodName computes a stable qualified name for a function definition. An
unnamed function falls back to its line position which is still stable and
unique within the unit.
*/
func (rw *rewriter) methodName(fn *parser.ASTNode, qualifier string) string {
	var name string

	if fn.Children[0].Name == parser.NodeIDENTIFIER {
		name = fmt.Sprintf("%v.%v", qualifier, fn.Children[0].Token.Val)
	} else {
		name = fmt.Sprintf("%v.funcL%v", qualifier, tokenLine(fn))
	}

	for rw.usedNames[name] {
		name = fmt.Sprintf("%vL%v", name, tokenLine(fn))
	}

	rw.usedNames[name] = true

	return name
}

// Analysis helpers
// ================

/*
paramVars returns the parameters of a function definition in declaration order.
*/
func paramVars(fn *parser.ASTNode) []localVar {
	var ret []localVar

	offset := 0
	if fn.Children[0].Name == parser.NodeIDENTIFIER {
		offset = 1
	}

	for _, p := range fn.Children[offset].Children {
		if p.Name == parser.NodeIDENTIFIER && len(p.Children) == 0 {
			ret = append(ret, localVar{p.Token.Val})
		} else if p.Name == parser.NodePRESET {
			ret = append(ret, localVar{p.Children[0].Token.Val})
		}
	}

	return ret
}

/*
declaredVars returns the variables which a statement introduces into its
enclosing region.
*/
func declaredVars(stmt *parser.ASTNode) []localVar {

	switch stmt.Name {

	case parser.NodeASSIGN:
		left := stmt.Children[0]

		if left.Name == parser.NodeLET {
			left = left.Children[0]
		}

		return targetVars(left)

	case parser.NodeLET:
		return targetVars(stmt.Children[0])

	case parser.NodeFUNC:

		// A named function declaration binds its name

		if stmt.Children[0].Name == parser.NodeIDENTIFIER {
			return []localVar{{stmt.Children[0].Token.Val}}
		}
	}

	return nil
}

/*
targetVars returns the simple identifiers of an assignment or loop target.
*/
func targetVars(target *parser.ASTNode) []localVar {
	var ret []localVar

	if target.Name == parser.NodeIDENTIFIER && len(target.Children) == 0 {
		ret = append(ret, localVar{target.Token.Val})

	} else if target.Name == parser.NodeLIST {

		for _, child := range target.Children {
			if child.Name == parser.NodeIDENTIFIER && len(child.Children) == 0 {
				ret = append(ret, localVar{child.Token.Val})
			}
		}
	}

	return ret
}

/*
isDebugAPICall checks if a statement is a call to the injected runtime API.
*/
func isDebugAPICall(stmt *parser.ASTNode) bool {

	if stmt.Name != parser.NodeIDENTIFIER || stmt.Token == nil {
		return false
	}

	v := stmt.Token.Val
	if v != FuncPushFrame && v != FuncPopFrame && v != FuncCheckpoint && v != FuncMakeLocals {
		return false
	}

	for _, child := range stmt.Children {
		if child.Name == parser.NodeFUNCCALL {
			return true
		}
	}

	return false
}

/*
isWrappedBody checks if a function body has been wrapped by a previous
rewrite.
*/
func isWrappedBody(body *parser.ASTNode) bool {

	if len(body.Children) != 1 || body.Children[0].Name != parser.NodeTRY {
		return false
	}

	try := body.Children[0]

	if len(try.Children) == 0 || try.Children[0].Name != parser.NodeSTATEMENTS {
		return false
	}

	stmts := try.Children[0]

	return len(stmts.Children) > 0 && isDebugAPICall(stmts.Children[0]) &&
		stmts.Children[0].Token.Val == FuncPushFrame
}

// Node constructors for generated code
// ====================================

/*
newToken creates a synthetic lexer token.
*/
func newToken(id parser.LexTokenID, val string, identifier bool) *parser.LexToken {
	return &parser.LexToken{ID: id, Val: val, Identifier: identifier}
}

/*
newNode creates a synthetic AST node.
*/
func newNode(name string, token *parser.LexToken) *parser.ASTNode {
	return &parser.ASTNode{Name: name, Token: token}
}

/*
identNode creates an identifier reference.
*/
func identNode(name string) *parser.ASTNode {
	return newNode(parser.NodeIDENTIFIER, newToken(parser.TokenIDENTIFIER, name, true))
}

/*
strNode creates a string constant.
*/
func strNode(val string) *parser.ASTNode {
	return newNode(parser.NodeSTRING, newToken(parser.TokenSTRING, val, false))
}

/*
numNode creates a number constant.
*/
func numNode(val int) *parser.ASTNode {
	return newNode(parser.NodeNUMBER, newToken(parser.TokenNUMBER, fmt.Sprint(val), false))
}

/*
identCall creates a function call statement to a given named function.
*/
func identCall(name string, args ...*parser.ASTNode) *parser.ASTNode {
	call := newNode(parser.NodeFUNCCALL, nil)
	call.Children = args

	ident := identNode(name)
	ident.Children = []*parser.ASTNode{call}

	return ident
}

/*
checkpointCall creates the checkpoint call which is inserted immediately
before an original statement.
*/
func checkpointCall(id int, method string, locals *parser.ASTNode) *parser.ASTNode {
	return identCall(FuncCheckpoint, numNode(id), strNode(method), locals)
}

/*
leftmostToken returns the leftmost original token of a subtree. Synthetic
tokens without a line are ignored.
*/
func leftmostToken(node *parser.ASTNode) *parser.LexToken {
	var best *parser.LexToken

	var walk func(n *parser.ASTNode)

	walk = func(n *parser.ASTNode) {
		if n == nil {
			return
		}

		if t := n.Token; t != nil && t.Lline > 0 {
			if best == nil || t.Pos < best.Pos {
				best = t
			}
		}

		for _, child := range n.Children {
			walk(child)
		}
	}

	walk(node)

	if best == nil {
		return &parser.LexToken{}
	}

	return best
}

/*
tokenSource returns the source of a node token or a fallback.
*/
func tokenSource(node *parser.ASTNode, fallback string) string {
	if node.Token != nil && node.Token.Lsource != "" {
		return node.Token.Lsource
	}
	return fallback
}

/*
tokenLine returns the line of a node token.
*/
func tokenLine(node *parser.ASTNode) int {
	if node.Token != nil {
		return node.Token.Lline
	}
	return 0
}
