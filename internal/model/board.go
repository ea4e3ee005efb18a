package model

import (
	"encoding/json"
	"fmt"
)

// BoardSize is the side length of a tic-tac-toe board
const BoardSize = 3

// Mark is the content of a single cell. The server decides which markers are
// in use; the client only distinguishes empty from taken.
type Mark string

// MarkNone is an empty cell (JSON null)
const MarkNone Mark = ""

// Position identifies a cell on the board
type Position struct {
	Row int // 0-indexed from top
	Col int // 0-indexed from left
}

// IsValid returns true if the position is within bounds
func (p Position) IsValid() bool {
	return p.Row >= 0 && p.Row < BoardSize && p.Col >= 0 && p.Col < BoardSize
}

// Board is a row-major 3x3 grid: Board[row][col]
type Board [BoardSize][BoardSize]Mark

// Get returns the mark at the given position, or MarkNone if out of bounds
func (b Board) Get(pos Position) Mark {
	if !pos.IsValid() {
		return MarkNone
	}
	return b[pos.Row][pos.Col]
}

// IsEmpty returns true if the cell at the given position is empty
func (b Board) IsEmpty(pos Position) bool {
	return pos.IsValid() && b[pos.Row][pos.Col] == MarkNone
}

// EmptyCount returns the number of empty cells
func (b Board) EmptyCount() int {
	count := 0
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			if b[row][col] == MarkNone {
				count++
			}
		}
	}
	return count
}

// MarshalJSON encodes empty cells as null
func (b Board) MarshalJSON() ([]byte, error) {
	rows := make([][]*string, BoardSize)
	for row := 0; row < BoardSize; row++ {
		rows[row] = make([]*string, BoardSize)
		for col := 0; col < BoardSize; col++ {
			if b[row][col] != MarkNone {
				v := string(b[row][col])
				rows[row][col] = &v
			}
		}
	}
	return json.Marshal(rows)
}

// UnmarshalJSON decodes a 3x3 array of nullable strings
func (b *Board) UnmarshalJSON(data []byte) error {
	var rows [][]*string
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	if len(rows) != BoardSize {
		return fmt.Errorf("%w: expected %d rows, got %d", ErrMalformedBoard, BoardSize, len(rows))
	}

	var out Board
	for row, cells := range rows {
		if len(cells) != BoardSize {
			return fmt.Errorf("%w: row %d has %d cells", ErrMalformedBoard, row, len(cells))
		}
		for col, cell := range cells {
			if cell != nil {
				out[row][col] = Mark(*cell)
			}
		}
	}
	*b = out
	return nil
}
