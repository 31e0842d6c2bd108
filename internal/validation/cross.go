package validation

import (
	"fmt"

	"finhub/internal/model"
)

// ValidateCrossSheet 以第一个工作表为基准，比较各表的 (cod, seg) 组合
// 只产生警告
func ValidateCrossSheet(sheets []model.SheetData) model.ValidationResult {
	var warnings []string
	if len(sheets) < 2 {
		return model.ResultOf(nil, nil)
	}

	base := sheets[0]
	baseKeys, baseSet := businessKeys(base.Records)

	for _, other := range sheets[1:] {
		otherKeys, otherSet := businessKeys(other.Records)
		for _, k := range baseKeys {
			if _, ok := otherSet[k]; !ok {
				warnings = append(warnings, fmt.Sprintf("combination %s present in %s but missing in %s", k, base.Name, other.Name))
			}
		}
		for _, k := range otherKeys {
			if _, ok := baseSet[k]; !ok {
				warnings = append(warnings, fmt.Sprintf("combination %s present in %s but missing in %s", k, other.Name, base.Name))
			}
		}
	}

	return model.ResultOf(nil, warnings)
}

// businessKeys 去重后的业务键（保持首次出现顺序）
func businessKeys(rows []*model.Record) ([]string, map[string]struct{}) {
	set := make(map[string]struct{}, len(rows))
	var keys []string
	for _, r := range rows {
		k := BusinessKey(r)
		if _, ok := set[k]; ok {
			continue
		}
		set[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys, set
}
