package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/brensch/snakepit/replay"
)

func main() {
	from := flag.Int("from", 0, "First turn to print")
	to := flag.Int("to", -1, "Last turn to print (-1 for the end)")
	every := flag.Int("every", 1, "Print every n-th turn")
	quiet := flag.Bool("summary", false, "Only print the header and turn count")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <replay file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	if *every < 1 {
		*every = 1
	}

	r, err := replay.Open(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to open replay: %v", err)
	}
	defer r.Close()

	h := r.Header
	fmt.Printf("%dx%d  food lifetime=%d value=%d  players=%d\n",
		h.Width, h.Height, h.FoodLifetime, h.FoodValue, len(h.Players))
	for _, p := range h.Players {
		fmt.Printf("  %d %s\n", p.ID, p.Name)
	}
	fmt.Println()

	turns := 0
	for {
		f, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Fatalf("Failed to read replay: %v", err)
		}
		turns++
		if *quiet || f.Turn < *from || (*to >= 0 && f.Turn > *to) || (f.Turn-*from)%*every != 0 {
			continue
		}
		fmt.Println(replay.Render(h, f))
	}
	fmt.Printf("%d turns\n", turns)
}
