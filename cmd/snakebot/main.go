// Command snakebot is an external agent for snakepit. It speaks the stdio
// protocol and moves with the builtin utility at the chosen difficulty.
//
// Use it from a game config as:
//
//	- bot:
//	    type: custom
//	    executable: snakebot
//	    args: ["-difficulty", "hard"]
package main

import (
	"bufio"
	"errors"
	"flag"
	"io"
	"log"
	"os"

	"github.com/brensch/snakepit/agent"
)

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	difficulty := fs.String("difficulty", "hard", "Builtin difficulty: easy, medium, hard")
	verbose := fs.Bool("v", false, "Log every move to stderr")
	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatalf("flag parse: %v", err)
	}
	log.SetOutput(os.Stderr)
	log.SetPrefix("snakebot: ")

	diff, err := agent.ParseDifficulty(*difficulty)
	if err != nil {
		log.Fatal(err)
	}

	if err := play(os.Stdin, os.Stdout, diff, *verbose); err != nil {
		log.Fatal(err)
	}
}

// play answers every snapshot in which our snake is alive with one
// direction line. Turns spent dead get no reply.
func play(in io.Reader, out io.Writer, diff agent.Difficulty, verbose bool) error {
	dec := agent.NewDecoder(in)
	info, err := dec.Handshake()
	if err != nil {
		return err
	}
	log.Printf("I am #%d of %d on %dx%d, %d turns", info.ID, info.Players, info.Width, info.Height, info.MaxTurns)

	w := bufio.NewWriter(out)
	for {
		snap, err := dec.Snapshot()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		a, err := agent.Rebuild(snap, info.FoodLifetime)
		if err != nil {
			return err
		}
		sn, ok := a.Snake(info.ID)
		if !ok {
			continue
		}
		dir := agent.Builtin(a, sn, diff)
		if verbose {
			log.Printf("turn %d: %s", snap.Turn, dir)
		}
		if _, err := w.WriteString(dir.String() + "\n"); err != nil {
			return err
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
}
