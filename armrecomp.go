// This file is part of armrecomp.
//
// armrecomp is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// armrecomp is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with armrecomp.  If not, see <https://www.gnu.org/licenses/>.

// armrecomp is a static recompilation and analysis tool for 32-bit
// little-endian ARM binaries.
//
// The RECOMP mode regenerates the binary as a source project that links
// against a runtime support library. The DUMP mode writes a
// human-readable disassembly of the binary.
package main

import (
	"fmt"
	"os"

	"github.com/bradleyjkemp/memviz"

	"github.com/jetsetilly/armrecomp/disassembly"
	"github.com/jetsetilly/armrecomp/logger"
	"github.com/jetsetilly/armrecomp/modalflag"
	"github.com/jetsetilly/armrecomp/recomp"
	"github.com/jetsetilly/armrecomp/statsview"
	"github.com/jetsetilly/armrecomp/version"
)

func main() {
	md := &modalflag.Modes{Output: os.Stdout}
	md.NewArgs(os.Args[1:])
	md.NewMode()
	md.AddSubModes("RECOMP", "DUMP")
	md.AdditionalHelp(fmt.Sprintf("%s is a static recompilation and analysis tool for ARM binaries", version.ApplicationName))

	p, err := md.Parse()
	switch p {
	case modalflag.ParseHelp:
		os.Exit(0)

	case modalflag.ParseError:
		fmt.Printf("* error: %v\n", err)
		os.Exit(10)
	}

	switch md.Mode() {
	case "RECOMP":
		err = recompMode(md)

	case "DUMP":
		err = dumpMode(md)
	}

	if err != nil {
		fmt.Printf("* error in %s mode: %v\n", md, err)
		os.Exit(20)
	}
}

func recompMode(md *modalflag.Modes) error {
	md.NewMode()

	minify := md.AddBool("minify", false, "minimise the emitted source to reduce compilation time")
	memvizFile := md.AddString("memviz", "", "write a graphviz rendering of the analysis maps to file")
	log := md.AddBool("log", false, "echo debugging log to stdout")
	stats := md.AddBool("statsview", false, "run stats server")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	if *log {
		logger.SetEcho(logger.NewColorizer(os.Stdout), true)
	} else {
		logger.SetEcho(nil, false)
	}

	if *stats {
		statsview.Launch(os.Stdout)
	}

	if len(md.RemainingArgs()) != 2 {
		return fmt.Errorf("arguments required for %s mode: <elf binary> <output directory>", md)
	}

	rec, err := recomp.NewRecompiler(md.GetArg(0), *minify)
	if err != nil {
		return err
	}
	defer rec.Close()

	if err := rec.Emit(md.GetArg(1)); err != nil {
		return err
	}

	if *memvizFile != "" {
		if err := writeMemviz(rec, *memvizFile); err != nil {
			return err
		}
	}

	return nil
}

// writeMemviz renders the analysis maps as a graphviz file. useful when
// checking how the PLT walk attributed entries to dependencies.
func writeMemviz(rec *recomp.Recompiler, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	maps := struct {
		GOTMappings []recomp.GOTMapping
		Deps        map[uint32]*recomp.Function
		Exports     map[uint32]*recomp.Function
	}{
		GOTMappings: rec.GOTMappings,
		Deps:        rec.Deps,
		Exports:     rec.Exports,
	}
	memviz.Map(f, &maps)

	return nil
}

func dumpMode(md *modalflag.Modes) error {
	md.NewMode()

	log := md.AddBool("log", false, "echo debugging log to stdout")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	if *log {
		logger.SetEcho(logger.NewColorizer(os.Stdout), true)
	} else {
		logger.SetEcho(nil, false)
	}

	if len(md.RemainingArgs()) != 2 {
		return fmt.Errorf("arguments required for %s mode: <elf binary> <output file>", md)
	}

	f, err := os.Create(md.GetArg(1))
	if err != nil {
		return err
	}
	defer f.Close()

	return disassembly.FromFile(f, md.GetArg(0))
}
