package entity

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/sudoku-duel-backend/internal/apperror"
)

const EmptyValue = 0

var ErrInvalidCell = errors.New("invalid cell position")

// boxSizes maps every supported board size to the side of its inner box.
var boxSizes = map[int]int{
	4:  2,
	9:  3,
	16: 4,
}

// ValidSize reports whether size is one of the supported board sizes.
func ValidSize(size int) bool {
	_, ok := boxSizes[size]
	return ok
}

// Clue is a pre-filled cell supplied by a puzzle source.
type Clue struct {
	Row   int `json:"row"`
	Col   int `json:"col"`
	Value int `json:"value"`
}

type Cell struct {
	Value   int  `json:"value"`
	Initial bool `json:"initial"`
}

// Board is a dumb NxN container of cells. It enforces value range and
// initial-cell immutability only; solution legality is evaluated by IsComplete.
type Board struct {
	Size  int      `json:"size"`
	Cells [][]Cell `json:"cells"`
}

// NewBoard builds a board of the given size with the clue cells marked initial.
func NewBoard(size int, clues []Clue) (*Board, error) {
	if !ValidSize(size) {
		return nil, fmt.Errorf("%w: %d", apperror.ErrInvalidSize, size)
	}

	cells := make([][]Cell, size)
	for row := range cells {
		cells[row] = make([]Cell, size)
	}

	for _, clue := range clues {
		if clue.Row < 0 || clue.Row >= size || clue.Col < 0 || clue.Col >= size {
			return nil, fmt.Errorf("%w: position (%d,%d) out of bounds", apperror.ErrInvalidClue, clue.Row, clue.Col)
		}

		if clue.Value < 1 || clue.Value > size {
			return nil, fmt.Errorf("%w: value %d", apperror.ErrInvalidClue, clue.Value)
		}

		if cells[clue.Row][clue.Col].Initial {
			return nil, fmt.Errorf("%w: duplicate position (%d,%d)", apperror.ErrInvalidClue, clue.Row, clue.Col)
		}

		cells[clue.Row][clue.Col] = Cell{Value: clue.Value, Initial: true}
	}

	return &Board{Size: size, Cells: cells}, nil
}

// ApplyMove writes value into the cell at (row, col). Value 0 clears the cell.
func (that *Board) ApplyMove(row, col, value int) error {
	if row < 0 || row >= that.Size || col < 0 || col >= that.Size {
		return fmt.Errorf("%w: (%d,%d)", ErrInvalidCell, row, col)
	}

	if value < 0 || value > that.Size {
		return fmt.Errorf("%w: %d", apperror.ErrValueOutOfRange, value)
	}

	if that.Cells[row][col].Initial {
		return fmt.Errorf("%w: (%d,%d)", apperror.ErrCellImmutable, row, col)
	}

	that.Cells[row][col].Value = value

	return nil
}

// IsComplete reports whether every cell is filled and every row, column and
// box contains each value 1..size exactly once.
func (that *Board) IsComplete() bool {
	for row := range that.Cells {
		for col := range that.Cells[row] {
			if that.Cells[row][col].Value == EmptyValue {
				return false
			}
		}
	}

	for i := 0; i < that.Size; i++ {
		if !that.groupValid(rowCells(i)) || !that.groupValid(colCells(i)) {
			return false
		}
	}

	box := boxSizes[that.Size]
	for boxRow := 0; boxRow < that.Size; boxRow += box {
		for boxCol := 0; boxCol < that.Size; boxCol += box {
			if !that.groupValid(boxCells(boxRow, boxCol, box)) {
				return false
			}
		}
	}

	return true
}

// Values returns a plain value grid, the shape the wire protocol carries.
func (that *Board) Values() [][]int {
	grid := make([][]int, that.Size)
	for row := range that.Cells {
		grid[row] = make([]int, that.Size)
		for col := range that.Cells[row] {
			grid[row][col] = that.Cells[row][col].Value
		}
	}

	return grid
}

// groupValid checks that the cells yielded by next contain no duplicate value.
func (that *Board) groupValid(next func(i int) (int, int)) bool {
	seen := make(map[int]bool, that.Size)

	for i := 0; i < that.Size; i++ {
		row, col := next(i)

		value := that.Cells[row][col].Value
		if seen[value] {
			return false
		}
		seen[value] = true
	}

	return true
}

func rowCells(row int) func(i int) (int, int) {
	return func(i int) (int, int) { return row, i }
}

func colCells(col int) func(i int) (int, int) {
	return func(i int) (int, int) { return i, col }
}

func boxCells(startRow, startCol, box int) func(i int) (int, int) {
	return func(i int) (int, int) { return startRow + i/box, startCol + i%box }
}
