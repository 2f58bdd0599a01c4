/*
 * SDBG - Source-level script debugger
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package parser

import (
	"fmt"
	"testing"
)

func TestNextItem(t *testing.T) {

	l := &lexer{"Test", "1234", 0, 0, 0, 0, 0, make(chan LexToken)}

	r := l.next(1)

	if r != '1' {
		t.Errorf("Unexpected token: %q", r)
		return
	}

	if r := l.next(0); r != '1' {
		t.Errorf("Unexpected token: %q", r)
		return
	}

	if r := l.next(0); r != '2' {
		t.Errorf("Unexpected token: %q", r)
		return
	}

	if r := l.next(1); r != '3' {
		t.Errorf("Unexpected token: %q", r)
		return
	}

	if r := l.next(2); r != '4' {
		t.Errorf("Unexpected token: %q", r)
		return
	}

	if r := l.next(0); r != '3' {
		t.Errorf("Unexpected token: %q", r)
		return
	}

	if r := l.next(0); r != '4' {
		t.Errorf("Unexpected token: %q", r)
		return
	}

	if r := l.next(0); r != RuneEOF {
		t.Errorf("Unexpected token: %q", r)
		return
	}
}

func TestBasicTokenLexing(t *testing.T) {

	// Test empty string parsing

	if res := fmt.Sprint(LexToList("mytest", "    \t   ")); res != "[EOF]" {
		t.Error("Unexpected lexer result:\n  ", res)
		return
	}

	// Test arithmetics

	input := `name := a + 1 and (ver+x!=1) * 5 > name2`
	if res := LexToList("mytest", input); fmt.Sprint(res) !=
		`["name" := "a" + v:"1" <AND> ( "ver" + "x" != v:"1" ) * v:"5" > "name2" EOF]` {
		t.Error("Unexpected lexer result:\n  ", res)
		return
	}

	// Test strings

	input = `okflag := "test"`
	if res := LexToList("mytest", input); fmt.Sprint(res) !=
		`["okflag" := v:"test" EOF]` {
		t.Error("Unexpected lexer result:\n  ", res)
		return
	}

	// Test keywords

	input = `if x in a { break } else { continue }`
	if res := LexToList("mytest", input); fmt.Sprint(res) !=
		`[<IF> "x" <IN> "a" { <BREAK> } <ELSE> { <CONTINUE> } EOF]` {
		t.Error("Unexpected lexer result:\n  ", res)
		return
	}
}

func TestTokenPositions(t *testing.T) {

	res := LexToList("mytest", "a := 1\nbb := 2")

	if res[0].Val != "a" || res[0].Lline != 1 || res[0].Lpos != 1 {
		t.Error("Unexpected token position:", res[0])
		return
	}

	if res[3].Val != "bb" || res[3].Lline != 2 || res[3].Lpos != 1 {
		t.Error("Unexpected token position:", res[3])
		return
	}

	if res[0].PosString() != "Line 1, Pos 1" {
		t.Error("Unexpected position string:", res[0].PosString())
		return
	}
}

func TestStringLexing(t *testing.T) {

	// Test unclosed quotes

	input := `name "test`
	if res := LexToList("mytest", input); fmt.Sprint(res) != `["name" Error: Unexpected end while reading string value (unclosed quotes) (Line 1, Pos 6)]` {
		t.Error("Unexpected lexer result:", res)
		return
	}

	// Test raw strings

	input = `name := r'test\n'`
	res := LexToList("mytest", input)

	if len(res) != 4 || res[2].Val != `test\n` || res[2].AllowEscapes {
		t.Error("Unexpected lexer result:", res)
		return
	}

	// Test escape sequences

	input = `name := 'test\n'`
	res = LexToList("mytest", input)

	if len(res) != 4 || res[2].Val != "test\n" || !res[2].AllowEscapes {
		t.Error("Unexpected lexer result:", res)
		return
	}
}

func TestCommentLexing(t *testing.T) {

	input := `/* a comment */ a := 1`
	res := LexToList("mytest", input)

	if res[0].ID != TokenPRECOMMENT || res[0].Type() != MetaDataPreComment {
		t.Error("Unexpected lexer result:", res)
		return
	}

	if res[0].Value() != " a comment " {
		t.Errorf("Unexpected comment value: %q", res[0].Value())
		return
	}

	input = "a := 1 # line comment\nb := 2"
	res = LexToList("mytest", input)

	if res[3].ID != TokenPOSTCOMMENT || res[3].Type() != MetaDataPostComment {
		t.Error("Unexpected lexer result:", res)
		return
	}
}

func TestInvalidIdentifierLexing(t *testing.T) {

	res := LexToList("mytest", "test_1")

	if len(res) != 1 || res[0].ID != TokenError {
		t.Error("Unexpected lexer result:", res)
		return
	}
}

func TestTokenEquality(t *testing.T) {

	res := LexToList("mytest", "a := 1")

	if ok, _ := res[0].Equals(res[0], false); !ok {
		t.Error("Token should equal itself")
		return
	}

	if ok, msg := res[0].Equals(res[1], false); ok || msg == "" {
		t.Error("Tokens should be different")
		return
	}

	if res[0].Type() != MetaDataGeneral {
		t.Error("Unexpected meta type:", res[0].Type())
		return
	}
}
