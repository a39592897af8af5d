// api/sequence/sequencer.go
package sequence

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"smartflow/api/models"
	"smartflow/api/utils"
)

// stepSeparator joins a user's ordered steps into the path key used for
// frequency ranking.
const stepSeparator = " > "

// Row is one master-dataset event annotated with its user's path nickname.
type Row struct {
	models.FlowEvent
	Date         time.Time `json:"date"`
	PathNickname string    `json:"pathNickname"`
}

// PathSequence is the derived view of a master dataset: rows filtered to an
// active window and category toggle, each labeled with the frequency rank of
// its user's full path. Owned by the session controller, never persisted.
type PathSequence struct {
	Rows      []Row
	Paths     map[string][]string // nickname -> ordered steps
	StartDate time.Time
	EndDate   time.Time
}

// Nickname formats a 1-indexed frequency rank as a path nickname, e.g.
// "1-Path_Freq_Rank" for the most travelled path in the window.
func Nickname(rank int) string {
	return fmt.Sprintf("%d-Path_Freq_Rank", rank)
}

// Derive filters master rows to timestamps strictly inside (startDate,
// endDate), applies the toll-free toggle, and labels every row with its
// user's path nickname. Ranks are computed against the filtered window only,
// so the same path can carry a different rank under a different window.
// The master slice is never modified.
func Derive(master []models.FlowEvent, startDate, endDate time.Time, includeTollFree bool) (*PathSequence, error) {
	if startDate.After(endDate) {
		return nil, fmt.Errorf("%w: %s > %s", models.ErrInvalidDateRange,
			utils.FormatDate(startDate), utils.FormatDate(endDate))
	}

	lower := utils.Midnight(startDate)
	upper := utils.Midnight(endDate)

	filtered := make([]Row, 0, len(master))
	for _, ev := range master {
		if !ev.TimeEvent.After(lower) || !ev.TimeEvent.Before(upper) {
			continue
		}
		filtered = append(filtered, Row{FlowEvent: ev, Date: ev.Date()})
	}

	if !includeTollFree {
		before := len(filtered)
		kept := filtered[:0]
		for _, r := range filtered {
			if r.TollFree == models.CategoryNonTollFree {
				kept = append(kept, r)
			}
		}
		filtered = kept
		log.Printf("Removing TollFreeNumbers: length before %d length now %d", before, len(filtered))
	}

	// Chronological row order keeps downstream node ordering stable across
	// repeated derivations of the same window.
	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].TimeEvent.Equal(filtered[j].TimeEvent) {
			return filtered[i].UserID < filtered[j].UserID
		}
		return filtered[i].TimeEvent.Before(filtered[j].TimeEvent)
	})

	byUser, paths := rankPaths(filtered)
	for i := range filtered {
		filtered[i].PathNickname = byUser[filtered[i].UserID]
	}

	return &PathSequence{
		Rows:      filtered,
		Paths:     paths,
		StartDate: lower,
		EndDate:   upper,
	}, nil
}

// rankPaths counts users per distinct step sequence and assigns nicknames by
// descending user count. Ties break on the path key so ranks are stable.
// Returns the nickname per user and the step sequence per nickname.
func rankPaths(rows []Row) (map[string]string, map[string][]string) {
	userSteps := make(map[string][]string)
	for _, r := range rows {
		userSteps[r.UserID] = append(userSteps[r.UserID], r.Step)
	}

	userKey := make(map[string]string, len(userSteps))
	counts := make(map[string]int)
	for user, steps := range userSteps {
		key := strings.Join(steps, stepSeparator)
		userKey[user] = key
		counts[key]++
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	nicknameByKey := make(map[string]string, len(keys))
	paths := make(map[string][]string, len(keys))
	for i, k := range keys {
		name := Nickname(i + 1)
		nicknameByKey[k] = name
		paths[name] = strings.Split(k, stepSeparator)
	}

	byUser := make(map[string]string, len(userKey))
	for user, key := range userKey {
		byUser[user] = nicknameByKey[key]
	}
	return byUser, paths
}

// PercentileDate maps a 0-100 percentage to the date at that fraction of the
// master dataset's wall-clock span. 0 returns the earliest event's date and
// 100 the latest's.
func PercentileDate(master []models.FlowEvent, percentage int) (time.Time, error) {
	if percentage < 0 || percentage > 100 {
		return time.Time{}, fmt.Errorf("%w: got %d", models.ErrInvalidPercentage, percentage)
	}
	if len(master) == 0 {
		return time.Time{}, models.ErrMissingMasterDataset
	}

	min, max := master[0].TimeEvent, master[0].TimeEvent
	for _, ev := range master[1:] {
		if ev.TimeEvent.Before(min) {
			min = ev.TimeEvent
		}
		if ev.TimeEvent.After(max) {
			max = ev.TimeEvent
		}
	}

	offset := time.Duration(int64(max.Sub(min)) / 100 * int64(percentage))
	return utils.Midnight(min.Add(offset)), nil
}
