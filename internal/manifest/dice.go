package manifest

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/suderio/turnflow/internal/engine"
)

// RollResult contains the finalized answer alongside the raw rolls used
type RollResult struct {
	Total    int
	RawRolls []int
	Kept     []int
	Dropped  []int
	Modifier int
}

var diceRegex = regexp.MustCompile(`(?i)^(\d*)d(\d+)(k[hl]\d+|[ad])?([+-]\d+)?$`)

// Roll evaluates dice notation such as "3d6", "1d20a", "4d6kh3" or "2d8+2"
// with the match's random source, so results replay with the match seed.
// A suffix of "a" or "d" rolls two dice and keeps the highest or lowest.
func Roll(r *engine.Random, notation string) (RollResult, error) {
	res := RollResult{}
	if r == nil {
		return res, fmt.Errorf("no random source")
	}

	raw := strings.ReplaceAll(notation, " ", "")
	matches := diceRegex.FindStringSubmatch(raw)
	if len(matches) == 0 {
		return res, fmt.Errorf("invalid dice expression format: %s", notation)
	}
	numStr, sidesStr, keepDropStr, modStr := matches[1], matches[2], matches[3], matches[4]

	numDice := 1
	if numStr != "" {
		numDice, _ = strconv.Atoi(numStr)
	}
	sides, _ := strconv.Atoi(sidesStr)
	if sides <= 0 {
		return res, fmt.Errorf("cannot roll a die with 0 or negative sides")
	}

	keepTotal := numDice
	isHighest := true
	switch kd := strings.ToLower(keepDropStr); {
	case kd == "a":
		numDice, keepTotal = 2, 1
	case kd == "d":
		numDice, keepTotal, isHighest = 2, 1, false
	case strings.HasPrefix(kd, "k"):
		isHighest = kd[1] == 'h'
		if n, err := strconv.Atoi(kd[2:]); err == nil {
			keepTotal = n
		}
	}

	res.RawRolls = r.Dice(sides, numDice)

	// Sort a copy so RawRolls keeps the order the dice were thrown in.
	sorted := append([]int(nil), res.RawRolls...)
	keepTotal = min(max(keepTotal, 0), numDice)
	if isHighest {
		sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	} else {
		sort.Ints(sorted)
	}
	res.Kept = sorted[:keepTotal]
	if keepTotal < numDice {
		res.Dropped = sorted[keepTotal:]
	}

	for _, val := range res.Kept {
		res.Total += val
	}
	if modStr != "" {
		res.Modifier, _ = strconv.Atoi(modStr)
		res.Total += res.Modifier
	}
	return res, nil
}
