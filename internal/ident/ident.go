// Package ident generates the human-readable work-item codes: requirement
// "R_NNN", story "US_<backlog>_NNN", task "TA_<story code>_NNN", test case
// "<project short name>-<story code>-NNN", defect "F_NNN".
//
// All schemes share one algorithm: scan the existing codes in scope, parse
// the trailing numeric segment of each (silently skipping codes that do not
// match the scheme), and emit max+1 zero-padded to three digits. Scanning
// the current rows rather than keeping a counter means the next code always
// reflects what actually exists, including after deletions. Callers pass
// their open transaction so the scan and the subsequent insert commit as a
// unit; the unique index on each code column catches whatever a concurrent
// transaction slips past the scan.
package ident

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/zulandar/sprintyard/internal/models"
	"gorm.io/gorm"
)

// NextRequirementCode returns the next global "R_NNN" backlog code.
func NextRequirementCode(tx *gorm.DB) (string, error) {
	var codes []string
	err := tx.Model(&models.ProductBacklog{}).
		Where("requirement_code <> ''").
		Pluck("requirement_code", &codes).Error
	if err != nil {
		return "", fmt.Errorf("ident: scan requirement codes: %w", err)
	}
	return format("R_", nextSeq(codes, "R_")), nil
}

// NextStoryCode returns the next "US_<backlog>_NNN" code within the given
// backlog item's scope.
func NextStoryCode(tx *gorm.DB, backlogID uint) (string, error) {
	prefix := fmt.Sprintf("US_%03d_", backlogID)

	var codes []string
	err := tx.Model(&models.UserStory{}).
		Where("product_backlog_id = ?", backlogID).
		Pluck("story_code", &codes).Error
	if err != nil {
		return "", fmt.Errorf("ident: scan story codes for backlog %d: %w", backlogID, err)
	}
	return format(prefix, nextSeq(codes, prefix)), nil
}

// NextTaskCode returns the next "TA_<story code>_NNN" code within the given
// story's scope. A story without a parseable code degrades to a numeric-ID
// scope starting at 1.
func NextTaskCode(tx *gorm.DB, storyID uint) (string, error) {
	var story models.UserStory
	if err := tx.First(&story, storyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("ident: story not found: %d", storyID)
		}
		return "", fmt.Errorf("ident: get story %d: %w", storyID, err)
	}

	scope := story.StoryCode
	if !strings.HasPrefix(scope, "US_") {
		scope = fmt.Sprintf("%03d", storyID)
	}
	prefix := "TA_" + scope + "_"

	var codes []string
	err := tx.Model(&models.Task{}).
		Where("user_story_id = ?", storyID).
		Pluck("task_code", &codes).Error
	if err != nil {
		return "", fmt.Errorf("ident: scan task codes for story %d: %w", storyID, err)
	}
	return format(prefix, nextSeq(codes, prefix)), nil
}

// NextCaseCode returns the next "<short>-<story code>-NNN" test case code
// within the given story's scope. Both scope tokens are required.
func NextCaseCode(tx *gorm.DB, projectShortName string, storyID uint) (string, error) {
	if projectShortName == "" {
		return "", fmt.Errorf("ident: project short name is required for case codes")
	}

	var story models.UserStory
	if err := tx.First(&story, storyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("ident: story not found: %d", storyID)
		}
		return "", fmt.Errorf("ident: get story %d: %w", storyID, err)
	}
	if story.StoryCode == "" {
		return "", fmt.Errorf("ident: story %d has no code; cannot scope case codes", storyID)
	}
	prefix := projectShortName + "-" + story.StoryCode + "-"

	var codes []string
	err := tx.Model(&models.TestCase{}).
		Where("user_story_id = ?", storyID).
		Pluck("case_code", &codes).Error
	if err != nil {
		return "", fmt.Errorf("ident: scan case codes for story %d: %w", storyID, err)
	}
	return format(prefix, nextSeq(codes, prefix)), nil
}

// NextDefectCode returns the next global "F_NNN" defect code.
func NextDefectCode(tx *gorm.DB) (string, error) {
	var codes []string
	err := tx.Model(&models.Defect{}).
		Where("defect_code <> ''").
		Pluck("defect_code", &codes).Error
	if err != nil {
		return "", fmt.Errorf("ident: scan defect codes: %w", err)
	}
	return format("F_", nextSeq(codes, "F_")), nil
}

// nextSeq returns max(parsed sequences)+1, or 1 when nothing in scope
// parses. Codes without the prefix or without a clean numeric tail are
// treated as absent.
func nextSeq(codes []string, prefix string) int {
	max := 0
	for _, code := range codes {
		rest, ok := strings.CutPrefix(code, prefix)
		if !ok {
			continue
		}
		seq, err := strconv.Atoi(rest)
		if err != nil || seq < 0 {
			continue
		}
		if seq > max {
			max = seq
		}
	}
	return max + 1
}

// format zero-pads the sequence to three digits. Sequences past 999 widen
// rather than wrap.
func format(prefix string, seq int) string {
	return fmt.Sprintf("%s%03d", prefix, seq)
}
