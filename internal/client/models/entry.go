package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/snaplog/internal/common"
)

var ErrInvalidEntry = errors.New("invalid entry metadata format")

// Entry is a dated record referencing inventory items. ImageIDs are soft
// references; nothing guarantees the items still exist.
type Entry struct {
	ID          string   `json:"id"`
	Date        string   `json:"date"`
	ImageIDs    []string `json:"imageIds"`
	Label       string   `json:"label"`
	ContentLink string   `json:"contentLink,omitempty"`
}

var weekdays = [...]string{"SUN", "MON", "TUE", "WED", "THU", "FRI", "SAT"}

// EntryName returns "<day>_<month>_<count>_<DOW>", e.g. "14_10_3_WED".
func EntryName(date time.Time, count int) string {
	return fmt.Sprintf("%d_%d_%d_%s", date.Day(), int(date.Month()), count, weekdays[date.Weekday()])
}

// NewEntry builds the metadata record for a new entry. The id is the entry
// name until the remote store assigns a real one.
func NewEntry(date time.Time, imageIDs []string) Entry {
	ids := make([]string, len(imageIDs))
	copy(ids, imageIDs)

	name := EntryName(date, len(ids))
	return Entry{
		ID:       name,
		Date:     date.UTC().Format(time.RFC3339),
		ImageIDs: ids,
		Label:    name,
	}
}

// FileName is the remote object name the entry is uploaded under.
func (e Entry) FileName() string {
	return e.Label + common.EntryFileExt
}

func (e Entry) Marshal() ([]byte, error) {
	return json.MarshalIndent(e, "", "  ")
}

// ParseEntry decodes uploaded entry metadata.
func ParseEntry(data []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	if e.ID == "" {
		return Entry{}, fmt.Errorf("%w: missing id", ErrInvalidEntry)
	}
	if e.ImageIDs == nil {
		e.ImageIDs = []string{}
	}
	return e, nil
}

// EntryFromObject materializes the minimal record sync stores for a listed
// entry object: no date and no image ids, which are only known from the
// object's content.
func EntryFromObject(o RemoteObject) Entry {
	return Entry{
		ID:          o.ID,
		Date:        "",
		ImageIDs:    []string{},
		Label:       strings.TrimSuffix(o.Name, common.EntryFileExt),
		ContentLink: o.ContentLink,
	}
}

func (e Entry) Object() RemoteObject {
	return RemoteObject{
		ID:          e.ID,
		Name:        e.FileName(),
		MimeType:    common.EntryMimeType,
		ContentLink: e.ContentLink,
	}
}

// DateFromName recovers the day and month encoded in an entry name and
// places them in year. ok is false when name does not follow EntryName.
func DateFromName(name string, year int) (time.Time, bool) {
	parts := strings.Split(strings.TrimSuffix(name, common.EntryFileExt), "_")
	if len(parts) < 2 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// ItemCountFromName returns the item count encoded in an entry name.
func ItemCountFromName(name string) (int, bool) {
	parts := strings.Split(strings.TrimSuffix(name, common.EntryFileExt), "_")
	if len(parts) < 3 {
		return 0, false
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
