package session

import "math/rand"

// RandomWalkMove gera o lance do oponente IA: um passeio aleatório de um
// passo a partir da última posição, preso dentro do tabuleiro. Placeholder
// de motor de jogo, assumido pelo produto nesta fase.
func RandomWalkMove(boardSize int, last *Move) Move {
	fromX, fromY := boardSize/2, boardSize/2
	if last != nil {
		fromX, fromY = last.ToX, last.ToY
	}

	toX := clampCoord(fromX+rand.Intn(3)-1, boardSize)
	toY := clampCoord(fromY+rand.Intn(3)-1, boardSize)

	return Move{
		UserID: AIUserID,
		FromX:  fromX,
		FromY:  fromY,
		ToX:    toX,
		ToY:    toY,
	}
}

func clampCoord(v, boardSize int) int {
	if v < 0 {
		return 0
	}
	if v >= boardSize {
		return boardSize - 1
	}
	return v
}
