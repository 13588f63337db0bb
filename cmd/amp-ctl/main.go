// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command amp-ctl is an interactive shell to tune an amplifier served by
// amp-srv.
//
// Usage: amp-ctl [OPTIONS] [COMMAND [ARGS...]]
//
// Example:
//
//	$> amp-ctl -addr rpi-1:5731
//	amp> state
//	state=running eq/drc=on preset=0
//	amp> volume ch1 0x40
//	amp> patch ./woofer1.txt
//
//	$> amp-ctl -addr rpi-1:5731 dump
package main // import "github.com/go-lpc/amp/cmd/amp-ctl"

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-lpc/amp/ctl"
	"github.com/go-lpc/amp/regmap"
	"github.com/peterh/liner"
)

func main() {
	log.SetPrefix("amp-ctl: ")
	log.SetFlags(0)

	addr := flag.String("addr", ":5731", "[ip]:[port] of the amp-srv control server")

	flag.Usage = func() {
		fmt.Printf(`amp-ctl is an interactive shell to tune an amplifier.

Usage: amp-ctl [OPTIONS] [COMMAND [ARGS...]]

Options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	err := run(*addr, flag.Args(), os.Stdin, os.Stdout)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

type prompter interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// scanner is the prompter used when stdin is not a terminal.
type scanner struct {
	sc *bufio.Scanner
	w  io.Writer
}

func (p *scanner) Prompt(prompt string) (string, error) {
	fmt.Fprint(p.w, prompt)
	if p.sc.Scan() {
		return p.sc.Text(), nil
	}
	err := p.sc.Err()
	if err == nil {
		err = io.EOF
	}
	return "", err
}

func (p *scanner) Close() error { return nil }

// term is the line-editing prompter, with history.
type term struct {
	*liner.State
	hist string
}

func newTerm() *term {
	t := &term{State: liner.NewLiner()}
	t.SetCtrlCAborts(true)
	t.SetCompleter(complete)

	home, err := os.UserHomeDir()
	if err == nil {
		t.hist = filepath.Join(home, ".amp-ctl.history")
		f, err := os.Open(t.hist)
		if err == nil {
			_, _ = t.ReadHistory(f)
			f.Close()
		}
	}
	return t
}

func (t *term) Prompt(prompt string) (string, error) {
	line, err := t.State.Prompt(prompt)
	if err == nil && strings.TrimSpace(line) != "" {
		t.AppendHistory(line)
	}
	return line, err
}

func (t *term) Close() error {
	if t.hist != "" {
		f, err := os.Create(t.hist)
		if err == nil {
			_, _ = t.WriteHistory(f)
			f.Close()
		}
	}
	return t.State.Close()
}

func run(addr string, args []string, stdin io.Reader, stdout io.Writer) error {
	cli, err := ctl.Dial(addr)
	if err != nil {
		return fmt.Errorf("could not connect to amp-srv: %w", err)
	}
	defer cli.Close()

	sh := &shell{cli: cli, w: stdout}
	if len(args) > 0 {
		return sh.exec(strings.Join(args, " "))
	}

	var p prompter
	switch {
	case stdin == os.Stdin && liner.TerminalSupported():
		p = newTerm()
	default:
		p = &scanner{sc: bufio.NewScanner(stdin), w: stdout}
	}
	defer p.Close()

	for {
		line, err := p.Prompt("amp> ")
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				return nil
			}
			return fmt.Errorf("could not read command: %w", err)
		}
		err = sh.exec(line)
		if err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintf(stdout, "error: %v\n", err)
		}
	}
}

var errQuit = errors.New("quit")

type shell struct {
	cli *ctl.Client
	w   io.Writer
}

type command struct {
	help string
	run  func(sh *shell, args []string) error
}

var cmds map[string]command

func init() {
	cmds = map[string]command{
		"help":     {"list commands", (*shell).cmdHelp},
		"quit":     {"leave the shell", func(*shell, []string) error { return errQuit }},
		"name":     {"display the speaker name", (*shell).cmdName},
		"state":    {"display the lifecycle and EQ/DRC state", (*shell).cmdState},
		"presets":  {"list the EQ presets", (*shell).cmdPresets},
		"preset":   {"[INDEX] display or select the EQ preset", (*shell).cmdPreset},
		"eqdrc":    {"[on|off] display or toggle EQ/DRC processing", (*shell).cmdEQDRC},
		"mute":     {"[on|off] display or toggle the soft mute", (*shell).cmdMute},
		"volume":   {"master|ch1|ch2 [VALUE] display or set a volume", (*shell).cmdVolume},
		"reg":      {"ADDR dump one register", (*shell).cmdReg},
		"dump":     {"dump all registers", (*shell).cmdDump},
		"errors":   {"show and clear the error status", (*shell).cmdErrors},
		"patch":    {"FILE apply an EQ/DRC text patch", (*shell).cmdPatch},
		"sysclk":   {"FREQ adapt the clock control to the MCLK frequency", (*shell).cmdSysClk},
		"init":     {"bring the amplifier up", simple("init")},
		"suspend":  {"save volumes and power down", simple("suspend")},
		"resume":   {"power up and restore volumes", simple("resume")},
		"shutdown": {"power down", simple("shutdown")},
	}
}

func complete(line string) []string {
	var o []string
	for name := range cmds {
		if strings.HasPrefix(name, line) {
			o = append(o, name)
		}
	}
	sort.Strings(o)
	return o
}

func (sh *shell) exec(line string) error {
	args := strings.Fields(line)
	if len(args) == 0 || strings.HasPrefix(args[0], "#") {
		return nil
	}
	switch args[0] {
	case "exit", "q":
		args[0] = "quit"
	}

	cmd, ok := cmds[args[0]]
	if !ok {
		return fmt.Errorf("unknown command %q (try help)", args[0])
	}
	return cmd.run(sh, args[1:])
}

func simple(name string) func(sh *shell, args []string) error {
	return func(sh *shell, args []string) error {
		return sh.cli.Do(name, nil, nil)
	}
}

func (sh *shell) cmdHelp(args []string) error {
	names := complete("")
	for _, name := range names {
		fmt.Fprintf(sh.w, "  %-10s %s\n", name, cmds[name].help)
	}
	return nil
}

func (sh *shell) cmdName(args []string) error {
	var name string
	err := sh.cli.Do("speaker-name", nil, &name)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.w, "%s\n", name)
	return nil
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "1", "true":
		return true, nil
	case "off", "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid on/off value %q", s)
}

func parseU8(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte value %q: %w", s, err)
	}
	return uint8(v), nil
}

func (sh *shell) cmdState(args []string) error {
	var st ctl.StateReply
	err := sh.cli.Do("state", nil, &st)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.w, "state=%s eq/drc=%s preset=%d\n", st.State, onOff(st.Enabled), st.Preset)
	return nil
}

func (sh *shell) cmdPresets(args []string) error {
	var names []string
	err := sh.cli.Do("presets", nil, &names)
	if err != nil {
		return err
	}
	for i, name := range names {
		fmt.Fprintf(sh.w, "  %d: %s\n", i, name)
	}
	return nil
}

func (sh *shell) cmdPreset(args []string) error {
	if len(args) == 0 {
		var p ctl.PresetArgs
		err := sh.cli.Do("eq-preset", nil, &p)
		if err != nil {
			return err
		}
		fmt.Fprintf(sh.w, "preset=%d (%s)\n", p.Index, p.Name)
		return nil
	}
	i, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid preset index %q: %w", args[0], err)
	}
	return sh.cli.Do("eq-preset", ctl.PresetArgs{Index: i}, nil)
}

func (sh *shell) cmdEQDRC(args []string) error {
	if len(args) == 0 {
		var v ctl.EnableArgs
		err := sh.cli.Do("eq-drc", nil, &v)
		if err != nil {
			return err
		}
		fmt.Fprintf(sh.w, "eq/drc=%s\n", onOff(v.Enable))
		return nil
	}
	on, err := parseOnOff(args[0])
	if err != nil {
		return err
	}
	return sh.cli.Do("eq-drc", ctl.EnableArgs{Enable: on}, nil)
}

func (sh *shell) cmdMute(args []string) error {
	if len(args) == 0 {
		var v ctl.MuteArgs
		err := sh.cli.Do("soft-mute", nil, &v)
		if err != nil {
			return err
		}
		fmt.Fprintf(sh.w, "mute=%s\n", onOff(v.Mute))
		return nil
	}
	on, err := parseOnOff(args[0])
	if err != nil {
		return err
	}
	return sh.cli.Do("soft-mute", ctl.MuteArgs{Mute: on}, nil)
}

func (sh *shell) cmdVolume(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing volume name (master, ch1 or ch2)")
	}
	var reg uint8
	switch args[0] {
	case "master":
		reg = regmap.MasterVolume
	case "ch1":
		reg = regmap.Ch1Volume
	case "ch2":
		reg = regmap.Ch2Volume
	default:
		return fmt.Errorf("invalid volume name %q", args[0])
	}

	if len(args) > 1 {
		v, err := parseU8(args[1])
		if err != nil {
			return err
		}
		return sh.cli.Do("volume", ctl.VolumeArgs{Reg: reg, Value: &v}, nil)
	}

	var v ctl.VolumeArgs
	err := sh.cli.Do("volume", ctl.VolumeArgs{Reg: reg}, &v)
	if err != nil {
		return err
	}
	if v.Value == nil {
		return fmt.Errorf("no volume value in reply")
	}
	fmt.Fprintf(sh.w, "%s=0x%02x\n", args[0], *v.Value)
	return nil
}

func (sh *shell) cmdReg(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing register address")
	}
	addr, err := parseU8(args[0])
	if err != nil {
		return err
	}
	var line string
	err = sh.cli.Do("dump-reg", ctl.RegArgs{Addr: addr}, &line)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.w, "%s\n", line)
	return nil
}

func (sh *shell) cmdDump(args []string) error {
	var dump string
	err := sh.cli.Do("dump", nil, &dump)
	fmt.Fprint(sh.w, dump)
	return err
}

func (sh *shell) cmdErrors(args []string) error {
	var v ctl.ErrorsReply
	err := sh.cli.Do("errors", nil, &v)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.w, "before: %s\nafter:  %s\n", v.Before, v.After)
	return nil
}

func (sh *shell) cmdPatch(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing patch file")
	}
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("could not read patch: %w", err)
	}
	return sh.cli.Do("eq-param", ctl.PatchArgs{Patch: string(raw)}, nil)
}

func (sh *shell) cmdSysClk(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing MCLK frequency")
	}
	freq, err := strconv.ParseUint(args[0], 0, 64)
	if err != nil {
		return fmt.Errorf("invalid MCLK frequency %q: %w", args[0], err)
	}
	return sh.cli.Do("sysclk", ctl.SysClockArgs{Freq: uint(freq)}, nil)
}
