package model

import "regexp"

var boardNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,128}$`)

// ValidBoardName reports whether name is usable as a board name: 1 to 128
// letters, digits or any of "_.:-".
func ValidBoardName(name string) bool {
	return boardNamePattern.MatchString(name)
}
