// Package sudoku is the puzzle source: it produces solvable clue sets for
// every supported board size by filling the diagonal boxes, solving the rest
// with backtracking and then removing cells.
package sudoku

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rocketscienceinc/sudoku-duel-backend/internal/apperror"
	"github.com/rocketscienceinc/sudoku-duel-backend/internal/entity"
)

// cluesRemoved9x9 leaves a mid-difficulty 9x9 puzzle; other sizes drop half.
const cluesRemoved9x9 = 40

type Generator struct {
	rng *rand.Rand
}

func NewGenerator() *Generator {
	return NewGeneratorWithSeed(time.Now().UnixNano())
}

// NewGeneratorWithSeed builds a deterministic generator, used by tests.
func NewGeneratorWithSeed(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))} //nolint: gosec // puzzles are not secrets
}

// Clues generates a clue set for a fresh board of the given size.
func (that *Generator) Clues(size int) ([]entity.Clue, error) {
	if !entity.ValidSize(size) {
		return nil, fmt.Errorf("%w: %d", apperror.ErrInvalidSize, size)
	}

	grid := make([][]int, size)
	for row := range grid {
		grid[row] = make([]int, size)
	}

	box := intSqrt(size)

	that.fillDiagonal(grid, size, box)

	if !solve(grid, size, box) {
		// The diagonal boxes are independent, so a solution always exists;
		// this branch is unreachable but kept to fail loudly over silently.
		return nil, fmt.Errorf("%w: unsolvable seed for size %d", apperror.ErrInvalidClue, size)
	}

	that.removeNumbers(grid, size)

	var clues []entity.Clue
	for row := range grid {
		for col := range grid[row] {
			if grid[row][col] != entity.EmptyValue {
				clues = append(clues, entity.Clue{Row: row, Col: col, Value: grid[row][col]})
			}
		}
	}

	return clues, nil
}

// fillDiagonal seeds the boxes on the main diagonal, which never constrain
// each other, so they can be filled with independent permutations.
func (that *Generator) fillDiagonal(grid [][]int, size, box int) {
	for start := 0; start < size; start += box {
		values := that.rng.Perm(size)

		i := 0
		for row := start; row < start+box; row++ {
			for col := start; col < start+box; col++ {
				grid[row][col] = values[i] + 1
				i++
			}
		}
	}
}

func (that *Generator) removeNumbers(grid [][]int, size int) {
	remaining := size * size / 2
	if size == 9 {
		remaining = cluesRemoved9x9
	}

	for remaining > 0 {
		row := that.rng.Intn(size)
		col := that.rng.Intn(size)

		if grid[row][col] != entity.EmptyValue {
			grid[row][col] = entity.EmptyValue
			remaining--
		}
	}
}

// solve fills every empty cell by backtracking.
func solve(grid [][]int, size, box int) bool {
	row, col, empty := firstEmpty(grid, size)
	if !empty {
		return true
	}

	for value := 1; value <= size; value++ {
		if !safe(grid, size, box, row, col, value) {
			continue
		}

		grid[row][col] = value
		if solve(grid, size, box) {
			return true
		}
		grid[row][col] = entity.EmptyValue
	}

	return false
}

func firstEmpty(grid [][]int, size int) (int, int, bool) {
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			if grid[row][col] == entity.EmptyValue {
				return row, col, true
			}
		}
	}

	return 0, 0, false
}

func safe(grid [][]int, size, box, row, col, value int) bool {
	for i := 0; i < size; i++ {
		if grid[row][i] == value || grid[i][col] == value {
			return false
		}
	}

	startRow, startCol := row-row%box, col-col%box
	for i := startRow; i < startRow+box; i++ {
		for j := startCol; j < startCol+box; j++ {
			if grid[i][j] == value {
				return false
			}
		}
	}

	return true
}

func intSqrt(size int) int {
	for i := 1; i <= size; i++ {
		if i*i == size {
			return i
		}
	}

	return 0
}
