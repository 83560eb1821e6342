// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/ezrec/pulseos/emulator"
	"github.com/ezrec/pulseos/status"
)

// execLines runs each line of input as a command. Command errors are
// reported and do not stop the script.
func execLines(emu *emulator.Emulator, name string, input io.Reader) (err error) {
	scanner := bufio.NewScanner(input)

	lineno := 0
	for scanner.Scan() {
		lineno++
		cmd_err := emu.Exec(scanner.Text())
		if cmd_err != nil {
			log.Errorf("%v:%d: %v", name, lineno, cmd_err)
		}
		if emu.Halted() {
			break
		}
	}

	err = scanner.Err()
	return
}

func main() {
	var configPath string
	var quantum int
	var sections int
	var verbose bool
	var cores string
	var listen string
	var script string
	var statusURL string

	flag.StringVar(&configPath, "config", "", "TOML machine configuration")
	flag.IntVar(&quantum, "q", 0, "Scheduling quantum, in cycles")
	flag.IntVar(&sections, "s", 0, "Memory size, in sections")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.StringVar(&cores, "cores", "", "Core dump directory")
	flag.StringVar(&listen, "listen", "", "Status server address")
	flag.StringVar(&script, "x", "", "Command script; without one, commands are read from stdin while the clock runs")

	flag.StringVar(&statusURL, "status", "", "Print the state of the machine served at this status URL, and exit")

	flag.Parse()

	if len(statusURL) != 0 {
		client := &status.Client{BaseURL: statusURL}
		err := client.Print(context.Background(), os.Stdout)
		if err != nil {
			log.Fatalf("%v: %v", statusURL, err)
		}
		return
	}

	cfg := emulator.DefaultConfig()
	if len(configPath) != 0 {
		var err error
		cfg, err = emulator.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("%v: %v", configPath, err)
		}
	}

	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "q":
			cfg.Quantum = quantum
		case "s":
			cfg.Sections = sections
		case "v":
			cfg.Verbose = verbose
		case "cores":
			cfg.Cores = cores
		case "listen":
			cfg.Listen = listen
		}
	})

	log.SetLevel(log.WarnLevel)
	if cfg.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	emu, err := emulator.NewEmulator(cfg, os.Stdout)
	if err != nil {
		log.Fatalf("%v: %v", os.Args[0], err)
	}

	for _, path := range flag.Args() {
		pid, err := emu.LoadFile(path)
		if err != nil {
			log.Fatalf("%v: %v", path, err)
		}
		err = emu.Exec("run " + strconv.Itoa(pid))
		if err != nil {
			log.Fatalf("%v: %v", path, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if len(cfg.Listen) != 0 {
		server := &http.Server{Addr: cfg.Listen, Handler: status.Handler(emu)}
		go func() {
			err := server.ListenAndServe()
			if !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("%v: %v", cfg.Listen, err)
			}
		}()
		defer server.Shutdown(context.Background())
	}

	if len(script) != 0 {
		inf, err := os.Open(script)
		if err != nil {
			log.Fatalf("%v: %v", script, err)
		}
		defer inf.Close()

		err = execLines(emu, script, inf)
		if err != nil {
			log.Fatalf("%v: %v", script, err)
		}
	} else {
		clock := make(chan error, 1)
		go func() {
			clock <- emu.Run(ctx)
		}()

		err = execLines(emu, "stdin", os.Stdin)
		if err != nil {
			log.Errorf("stdin: %v", err)
		}

		stop()
		err = <-clock
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Errorf("%v", err)
		}
	}

	if !emu.Halted() {
		err = emu.Exec("wait")
		if err != nil {
			log.Errorf("%v", err)
		}
	}
}
