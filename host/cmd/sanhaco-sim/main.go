package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"sanhaco/config"
	"sanhaco/core"
	"sanhaco/host/sim"
)

var (
	listen     = flag.String("listen", "127.0.0.1:7070", "Address the simulated UART listens on")
	quadrature = flag.Bool("quadrature", false, "Simulate quadrature encoders")
	realtime   = flag.Bool("realtime", true, "Run simulated time at wall-clock speed")
	verbose    = flag.Bool("verbose", false, "Enable verbose output")
)

func main() {
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	core.SetDebugWriter(func(msg string) {
		log.Debug().Str("src", "firmware").Msg(msg)
	})
	core.SetDebugEnabled(*verbose)

	cfg := core.DefaultBoardConfig()
	if *quadrature {
		cfg.Encoder = core.EncoderQuadrature
	}

	board := sim.New(cfg, log.Logger)
	board.Realtime = *realtime
	if err := board.Boot(); err != nil {
		log.Fatal().Err(err).Msg("boot failed")
	}

	l, err := net.Listen("tcp", *listen)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to listen")
	}
	defer l.Close()
	go func() {
		if err := board.Serve(l); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Error().Err(err).Msg("serial listener stopped")
		}
	}()
	log.Info().Str("device", "tcp://"+l.Addr().String()).Msg("connect sanhaco-config here")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := board.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatal().Err(err).Msg("firmware stopped")
		}
	}()

	fmt.Println("Sanhaco Sim - simulated robot")
	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "quit", "exit", "q":
			fmt.Println("Goodbye!")
			return

		case "help", "?":
			printHelp()

		case "stick":
			if err := cmdStick(board, parts[1:]); err != nil {
				fmt.Println(err)
			}

		case "radio":
			if len(parts) != 2 || (parts[1] != "on" && parts[1] != "off") {
				fmt.Println("usage: radio on|off")
				continue
			}
			board.SetRadio(parts[1] == "on")

		case "status":
			printStatus(board.Snapshot())

		case "events":
			core.DumpEvents()

		default:
			fmt.Printf("Unknown command: %s (type 'help' for available commands)\n", parts[0])
		}
	}
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  help              - Show this help message")
	fmt.Println("  stick <ch> <us>   - Set a receiver channel pulse width (0 steer, 1 throttle, 2 reverse)")
	fmt.Println("  radio on|off      - Switch the transmitter")
	fmt.Println("  status            - Show loop state")
	fmt.Println("  events            - Dump the firmware event ring (needs -verbose)")
	fmt.Println("  quit/exit/q       - Exit the program")
	fmt.Println()
}

func cmdStick(board *sim.Board, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: stick <ch> <us>")
	}
	ch, err := strconv.Atoi(args[0])
	if err != nil || ch < 0 || ch >= core.MaxChannels {
		return fmt.Errorf("bad channel %q", args[0])
	}
	us, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil || us < 800 || us > 2200 {
		return fmt.Errorf("bad pulse width %q (800..2200)", args[1])
	}
	board.SetStick(ch, uint32(us))
	return nil
}

func printStatus(s sim.Snapshot) {
	fmt.Printf("time %.3fs  boot %d  frames %d  lost %v  led %v\n",
		float64(s.Time)/1e6, s.Boots, s.Status.Frames, s.Status.Lost, s.LED)
	if s.Configuring {
		fmt.Println("  configuration session open, motors stopped")
	}
	for a := config.Axis(0); a < config.NumAxes; a++ {
		name := "left "
		if a == config.Right {
			name = "right"
		}
		fmt.Printf("  %s target %4d  measured %4d  power %4d  wheel %6.0f edges/s\n",
			name, s.Status.Targets[a], s.Status.Measured[a], s.Status.Power[a], s.Speed[a])
	}
}
