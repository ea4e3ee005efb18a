package apitest

// Snapshot builds a game_state/make_move response body. Cells are given
// row-major; "" means empty.
func Snapshot(cells [3][3]string, nextTurn, winner, status string) map[string]any {
	board := make([][]any, 3)
	for r := range cells {
		board[r] = make([]any, 3)
		for c, v := range cells[r] {
			if v != "" {
				board[r][c] = v
			}
		}
	}
	return map[string]any{
		"board":     board,
		"next_turn": optional(nextTurn),
		"winner":    optional(winner),
		"status":    status,
	}
}

// EmptySnapshot is a fresh game where nextTurn moves first
func EmptySnapshot(nextTurn string) map[string]any {
	return Snapshot([3][3]string{}, nextTurn, "", "in_progress")
}

// ValidationError mimics the server's structured validation failure
func ValidationError(msg string) map[string]any {
	return map[string]any{
		"detail": []map[string]any{{"loc": []string{"body"}, "msg": msg, "type": "value_error"}},
	}
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}
