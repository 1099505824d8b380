// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package textnorm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/toniewert/toniewert/pkg/textnorm"
)

/*
TestFold verifies the shared normal form used for all title comparisons.
*/
func TestFold(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase", "Hexe Lilli", "hexe lilli"},
		{"umlauts_folded", "Hörfigur", "horfigur"},
		{"accents_folded", "Pippi Långstrumpf", "pippi langstrumpf"},
		{"ampersand_expanded", "Max & Moritz", "max und moritz"},
		{"punctuation_stripped", "Benjamin Blümchen – Folge 1!", "benjamin blumchen folge 1"},
		{"whitespace_collapsed", "  der   kleine    drache ", "der kleine drache"},
		{"empty", "", ""},
		{"only_punctuation", "—!?—", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, textnorm.Fold(tt.input))
		})
	}
}

/*
TestTokens verifies token splitting with the minimum-length gate.
*/
func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"hexe", "lilli"}, textnorm.Tokens("hexe lilli", 2))
	assert.Equal(t, []string{"hexe"}, textnorm.Tokens("a hexe b", 2))
	assert.Empty(t, textnorm.Tokens("", 2))
}

/*
TestTokenSet verifies set construction from folded text.
*/
func TestTokenSet(t *testing.T) {
	set := textnorm.TokenSet("die kleine hexe hexe", 3)

	assert.Len(t, set, 3)
	assert.Contains(t, set, "hexe")
	assert.Contains(t, set, "kleine")
	assert.Contains(t, set, "die")
}
