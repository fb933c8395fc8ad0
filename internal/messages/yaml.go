package messages

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/pixelplant/internal/models"
	"github.com/nvandessel/pixelplant/internal/sanitize"
)

// File is the on-disk format for custom messages.
//
//	messages:
//	  - category: hydration
//	    text: "Water break, {name}!"
//	    mood: caring
//	    care_level: gentle
type File struct {
	Messages []FileEntry `yaml:"messages"`
}

// FileEntry is one custom message. Mood and care level default to happy and
// gentle when omitted.
type FileEntry struct {
	Category  string `yaml:"category"`
	Text      string `yaml:"text"`
	Mood      string `yaml:"mood,omitempty"`
	CareLevel string `yaml:"care_level,omitempty"`
}

// LoadYAML parses custom messages and appends them to the bank after the
// built-in ones. Text is sanitized; entries that sanitize to nothing are
// skipped. Any unknown category, mood or care level fails the whole load
// and leaves the bank unchanged.
func (b *Bank) LoadYAML(data []byte, now time.Time) (int, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return 0, fmt.Errorf("parsing messages: %w", err)
	}

	type parsed struct {
		cat models.Category
		msg models.PersonalityMessage
	}
	var out []parsed
	for i, e := range f.Messages {
		cat, err := models.ParseCategory(e.Category)
		if err != nil {
			return 0, fmt.Errorf("message %d: %w", i, err)
		}
		mood := models.MoodHappy
		if e.Mood != "" {
			if mood, err = models.ParseMood(e.Mood); err != nil {
				return 0, fmt.Errorf("message %d: %w", i, err)
			}
		}
		care := models.CareGentle
		if e.CareLevel != "" {
			if care, err = models.ParseCareLevel(e.CareLevel); err != nil {
				return 0, fmt.Errorf("message %d: %w", i, err)
			}
		}
		text := sanitize.MessageText(e.Text)
		if text == "" {
			continue
		}
		out = append(out, parsed{cat, models.PersonalityMessage{
			Text:      text,
			Mood:      mood,
			CareLevel: care,
			LastUsed:  now,
		}})
	}

	for _, p := range out {
		b.Add(p.cat, p.msg)
	}
	return len(out), nil
}

// LoadFile reads custom messages from path. See LoadYAML.
func (b *Bank) LoadFile(path string, now time.Time) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading messages file: %w", err)
	}
	return b.LoadYAML(data, now)
}

// Export returns the bank contents in the custom file format.
func (b *Bank) Export() File {
	var f File
	for _, cat := range models.AllCategories() {
		for _, m := range b.entries[cat] {
			f.Messages = append(f.Messages, FileEntry{
				Category:  cat.String(),
				Text:      m.Text,
				Mood:      m.Mood.String(),
				CareLevel: m.CareLevel.String(),
			})
		}
	}
	return f
}
