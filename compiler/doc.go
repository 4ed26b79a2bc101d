/*

Process of compilation

Program Text ->
	normalize ->
Core Dialect Text ->
	lex ->
Token Stream ->
	parse ->
Abstract Syntax Tree (ast) ->
	emit (type/locals/fold in one pass) ->
Symbolic IR (ir) ->
	finalize ->
Bytecode (immutable, absolute branch offsets) ->
	run (vm) -> Integer Result
	or
	lower Symbolic IR (asm) -> NASM Text + build.bat ->
	assemble & link ->
Binary Executable

*/
package compiler
