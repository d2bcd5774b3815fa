package main

import (
	"encoding/json"
	"fmt"
	"os"

	"battleship-p2p/internal/game"
)

func saveJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func loadJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func loadBoardFile(path string) (*game.Board, error) {
	var b game.Board
	if err := loadJSON(path, &b); err != nil {
		return nil, fmt.Errorf("read board %s: %w", path, err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}
