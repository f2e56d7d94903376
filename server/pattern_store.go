package main

import (
	"encoding/json"

	"github.com/netsentry-labs/netsentry/pkg/detect"
	"gorm.io/gorm"
)

// PatternStore reads and toggles detection rules. Nothing is cached: the
// engine sees a toggle on its next read.
type PatternStore struct {
	db *gorm.DB
}

func NewPatternStore(db *gorm.DB) *PatternStore {
	return &PatternStore{db: db}
}

func (s *PatternStore) Active() ([]AttackPattern, error) {
	var patterns []AttackPattern
	err := s.db.Where("active = ?", true).Order("created_at").Find(&patterns).Error
	return patterns, err
}

// AllBySeverity lists every pattern ordered most severe first, the order the
// management surface displays them in.
func (s *PatternStore) AllBySeverity() ([]AttackPattern, error) {
	var patterns []AttackPattern
	err := s.db.Order("case severity when 'critical' then 0 when 'high' then 1 when 'medium' then 2 else 3 end").
		Find(&patterns).Error
	return patterns, err
}

func (s *PatternStore) SetActive(id string, active bool) error {
	result := s.db.Model(&AttackPattern{}).Where("id = ?", id).Update("active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// engineRules converts stored patterns into engine rules, decoding the JSON
// parameter object. Undecodable parameters yield an empty map, which the
// engine treats as a rule whose conditions never hold.
func engineRules(patterns []AttackPattern) []detect.Rule {
	rules := make([]detect.Rule, 0, len(patterns))
	for _, p := range patterns {
		params := map[string]any{}
		if p.DetectionRules != "" {
			if err := json.Unmarshal([]byte(p.DetectionRules), &params); err != nil {
				params = map[string]any{}
			}
		}
		rules = append(rules, detect.Rule{
			ID:       p.ID,
			Name:     p.Name,
			Severity: p.Severity,
			Active:   p.Active,
			Params:   params,
		})
	}
	return rules
}
