package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"sanhaco/config"
	"sanhaco/host/mcu"
	"sanhaco/host/serial"
)

var (
	device  = flag.String("device", "/dev/ttyUSB0", "Serial device path, or tcp://host:port for the simulator")
	baud    = flag.Int("baud", serial.DefaultBaud, "Baud rate")
	timeout = flag.Duration("timeout", 2*time.Second, "Reply timeout")
	verbose = flag.Bool("verbose", false, "Enable verbose output")
)

func main() {
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	fmt.Println("Sanhaco Config - motor controller configuration console")
	fmt.Println("========================================================")
	fmt.Println()

	board := mcu.NewMCU(log.Logger)

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud
	if err := board.ConnectWithConfig(cfg); err != nil {
		log.Fatal().Err(err).Str("device", *device).Msg("failed to connect")
	}
	defer board.Close()
	board.SetTimeout(*timeout)

	if err := board.EnterConfigMode(); err != nil {
		log.Fatal().Err(err).Msg("board did not answer the handshake")
	}

	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "quit", "exit", "q":
			if board.IsConfiguring() {
				fmt.Println("Board is still in configuration mode; 'finish' saves and restarts it.")
			}
			fmt.Println("Goodbye!")
			return

		case "help", "?":
			printHelp()

		case "params":
			printParams()

		case "read":
			if err := cmdRead(board, args); err != nil {
				log.Error().Err(err).Msg("read failed")
			}

		case "write":
			if err := cmdWrite(board, args); err != nil {
				log.Error().Err(err).Msg("write failed")
			}

		case "dump":
			rec, err := board.RetrieveRecord()
			if err != nil {
				log.Error().Err(err).Msg("dump failed")
				continue
			}
			mcu.PrintRecord(os.Stdout, rec)

		case "load":
			if len(args) != 1 {
				fmt.Println("usage: load <profile.json>")
				continue
			}
			if err := board.LoadProfile(args[0]); err != nil {
				log.Error().Err(err).Msg("load failed")
			}

		case "raw":
			reply, err := board.Raw(args)
			if err != nil {
				log.Error().Err(err).Msg("raw failed")
				continue
			}
			fmt.Printf("reply: % X\n", reply)

		case "finish":
			if err := board.Finish(); err != nil {
				log.Error().Err(err).Msg("finish failed")
				continue
			}
			fmt.Println("Saved. The board is restarting.")
			return

		default:
			fmt.Printf("Unknown command: %s (type 'help' for available commands)\n", cmd)
		}
	}

	if err := scanner.Err(); err != nil {
		log.Fatal().Err(err).Msg("error reading input")
	}
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  help                  - Show this help message")
	fmt.Println("  params                - List parameter names")
	fmt.Println("  read <name>           - Read a parameter")
	fmt.Println("  write <name> <value>  - Write a parameter (gains as 1.5, blend as 0..1)")
	fmt.Println("  dump                  - Read every parameter")
	fmt.Println("  load <profile.json>   - Write a whole profile")
	fmt.Println("  raw <hex bytes>       - Send bytes unchanged and print the reply")
	fmt.Println("  finish                - Save and restart the board")
	fmt.Println("  quit/exit/q           - Exit the program")
	fmt.Println()
}

func printParams() {
	for _, p := range config.Params {
		fmt.Printf("  %-14s [%g .. %g]\n", p.Name, config.ToDisplay(p, p.Min), config.ToDisplay(p, p.Max))
	}
}

func cmdRead(board *mcu.MCU, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: read <name>")
	}
	v, err := board.ReadParam(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s = %g\n", args[0], v)
	return nil
}

func cmdWrite(board *mcu.MCU, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: write <name> <value>")
	}
	v, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("bad value %q: %w", args[1], err)
	}
	return board.WriteParam(args[0], v)
}
