// Package meta formats a compiled program for human/tool consumption:
// a hex dump of the finalized bytecode and a metadata document
// describing its locals and warnings (spec.md §4.8). It is grounded on
// the teacher's compiler/format package — a small dedicated formatter
// kept separate from the compiler core — retargeted from source-text
// pretty-printing to the hex/JSON shapes this dialect's driver prints.
package meta

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/JoeySoprano420/Parashade/compiler/ast"
	"github.com/JoeySoprano420/Parashade/compiler/ir"
)

// HexDump renders b as a banner line naming the byte count followed by
// 16 space-separated, zero-padded lowercase hex bytes per line
// (spec.md §4.8).
func HexDump(b []byte) string {
	var out strings.Builder

	fmt.Fprintf(&out, "; PARASHADE HEX IR (%d bytes)\n", len(b))

	for i := 0; i < len(b); i += 16 {
		end := i + 16
		if end > len(b) {
			end = len(b)
		}

		for _, v := range b[i:end] {
			fmt.Fprintf(&out, "%02x ", v)
		}

		out.WriteString("\n")
	}

	return out.String()
}

// Doc is the metadata JSON object of spec.md §4.8.
type Doc struct {
	Module    string       `json:"module"`
	Functions []FuncDoc    `json:"functions"`
	Warnings  []WarningDoc `json:"warnings"`
}

// FuncDoc describes one compiled function.
type FuncDoc struct {
	Name   string     `json:"name"`
	Locals []LocalDoc `json:"locals"`
}

// LocalDoc mirrors one ir.Local entry, in index order (spec.md §4.8, P7).
type LocalDoc struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Index    int    `json:"index"`
	Line     int    `json:"line"`
	Explicit bool   `json:"explicit"`
}

// WarningDoc mirrors one ir.Warning entry.
type WarningDoc struct {
	Code string `json:"code"`
	Line int    `json:"line"`
	Msg  string `json:"msg"`
}

// Metadata builds the metadata document for mod's compiled form prog.
// Locals and Warnings are carried over in the order the Typer/Emitter
// pass recorded them in prog.
func Metadata(mod *ast.Module, prog *ir.Program) Doc {
	locals := make([]LocalDoc, 0, len(prog.Locals))

	for _, l := range prog.Locals {
		locals = append(locals, LocalDoc{
			Name:     l.Name,
			Type:     l.Type.String(),
			Index:    int(l.Index),
			Line:     l.DeclLine,
			Explicit: l.Explicit,
		})
	}

	warnings := make([]WarningDoc, 0, len(prog.Warnings))

	for _, w := range prog.Warnings {
		warnings = append(warnings, WarningDoc{
			Code: w.Code,
			Line: w.Line,
			Msg:  w.Message,
		})
	}

	return Doc{
		Module: mod.Name,
		Functions: []FuncDoc{
			{Name: prog.FuncName, Locals: locals},
		},
		Warnings: warnings,
	}
}

// JSON renders d as an indented JSON object.
func (d Doc) JSON() (string, error) {
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", err
	}

	return string(b), nil
}
