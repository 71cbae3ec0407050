package replay

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/brensch/snakepit/game"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

type Snake struct {
	ID   game.PlayerID
	Body []game.Point
}

// Frame is one resolved turn as stored in the replay.
type Frame struct {
	Turn   int
	Food   []game.FoodState
	Snakes []Snake
}

type Reader struct {
	Header Header

	sc     *bufio.Scanner
	dec    *zstd.Decoder
	closer io.Closer
	turn   int
}

// Open reads the header of the replay at path. Compression is detected from
// the content, not the file name.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay: %w", err)
	}
	r, err := NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

func NewReader(src io.Reader) (*Reader, error) {
	br := bufio.NewReader(src)
	r := &Reader{}

	var in io.Reader = br
	if magic, err := br.Peek(len(zstdMagic)); err == nil && bytes.Equal(magic, zstdMagic) {
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		r.dec = dec
		in = dec
	}
	r.sc = bufio.NewScanner(in)
	r.sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	if err := r.readHeader(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) line() (string, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.sc.Text(), nil
}

func (r *Reader) readHeader() error {
	first, err := r.line()
	if err != nil {
		return fmt.Errorf("replay header: %w", err)
	}
	nums, err := ints(strings.Fields(first))
	if err != nil || len(nums) != 5 {
		return fmt.Errorf("replay header %q: want 5 integers", first)
	}
	r.Header = Header{Width: nums[0], Height: nums[1], FoodLifetime: nums[2], FoodValue: nums[3]}

	for i := 0; i < nums[4]; i++ {
		l, err := r.line()
		if err != nil {
			return fmt.Errorf("replay player %d: %w", i, err)
		}
		idStr, name, _ := strings.Cut(l, " ")
		id, err := strconv.Atoi(idStr)
		if err != nil {
			return fmt.Errorf("replay player line %q: %w", l, err)
		}
		r.Header.Players = append(r.Header.Players, PlayerInfo{ID: game.PlayerID(id), Name: name})
	}
	return nil
}

// Next returns the next turn, or io.EOF after the last one.
func (r *Reader) Next() (Frame, error) {
	foodLine, err := r.line()
	if err != nil {
		return Frame{}, err
	}
	snakeLine, err := r.line()
	if errors.Is(err, io.EOF) {
		return Frame{}, fmt.Errorf("replay turn %d: truncated", r.turn)
	}
	if err != nil {
		return Frame{}, err
	}

	f := Frame{Turn: r.turn}
	food, err := ints(strings.Fields(foodLine))
	if err != nil || len(food)%3 != 0 {
		return Frame{}, fmt.Errorf("replay turn %d: bad food line %q", r.turn, foodLine)
	}
	for i := 0; i < len(food); i += 3 {
		f.Food = append(f.Food, game.FoodState{Lifetime: food[i], Pos: game.Point{X: food[i+1], Y: food[i+2]}})
	}

	for _, part := range strings.Split(snakeLine, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		nums, err := ints(fields)
		if err != nil || len(nums)%2 != 1 {
			return Frame{}, fmt.Errorf("replay turn %d: bad snake %q", r.turn, part)
		}
		s := Snake{ID: game.PlayerID(nums[0])}
		for i := 1; i < len(nums); i += 2 {
			s.Body = append(s.Body, game.Point{X: nums[i], Y: nums[i+1]})
		}
		f.Snakes = append(f.Snakes, s)
	}
	r.turn++
	return f, nil
}

func (r *Reader) Close() error {
	if r.dec != nil {
		r.dec.Close()
		r.dec = nil
	}
	if r.closer != nil {
		err := r.closer.Close()
		r.closer = nil
		return err
	}
	return nil
}

func ints(fields []string) ([]int, error) {
	out := make([]int, len(fields))
	for i, s := range fields {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
