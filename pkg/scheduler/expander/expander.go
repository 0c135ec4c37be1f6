// Package expander 把项目班次需求展开为有序的排班单元
package expander

import (
	"fmt"
	"sort"

	"github.com/paigong/paigong/pkg/model"
)

// Expand 在规划窗口内枚举每条需求的命中日期，产出有序的排班单元列表
// 同一需求在一个日期上只产出一个单元，所需人数记在 RequiredCount 上
// 排序固定为（日期，班次规范顺序，项目ID），这是引擎确定性的基础
func Expand(requirements []*model.ShiftRequirement, window model.DateRange) ([]model.ShiftSlot, error) {
	if !window.Validate() {
		return nil, fmt.Errorf("非法规划窗口: %s ~ %s", window.StartDate, window.EndDate)
	}

	var slots []model.ShiftSlot
	index := make(map[string]int)
	dates := window.Dates()

	for _, req := range requirements {
		if req.Headcount < 1 {
			return nil, fmt.Errorf("需求 %s 的人数非法: %d", req.ID, req.Headcount)
		}
		if !req.ShiftType.IsValid() {
			return nil, fmt.Errorf("需求 %s 的班次类型非法: %s", req.ID, req.ShiftType)
		}
		if err := req.Recurrence.Validate(); err != nil {
			return nil, fmt.Errorf("需求 %s 的重复规则非法: %w", req.ID, err)
		}

		// 重复规则在窗口内无命中日期时不产出单元，不算错误
		for _, date := range dates {
			if !req.Recurrence.Matches(date) {
				continue
			}
			slot := model.ShiftSlot{
				ProjectID:     req.ProjectID,
				Date:          date,
				ShiftType:     req.ShiftType,
				RequiredCount: req.Headcount,
			}
			// 多条需求命中同一单元时合并为一个，人数相加
			if i, ok := index[slot.Key()]; ok {
				slots[i].RequiredCount += req.Headcount
				continue
			}
			index[slot.Key()] = len(slots)
			slots = append(slots, slot)
		}
	}

	sort.Slice(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.ShiftType != b.ShiftType {
			return a.ShiftType.Order() < b.ShiftType.Order()
		}
		return a.ProjectID.String() < b.ProjectID.String()
	})

	return slots, nil
}
