// Package calendar 提供覆盖计划的 iCalendar 导出
package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paigong/paigong/pkg/model"
)

const (
	prodID     = "-//paigong//paigong//CN"
	icsTimeFmt = "20060102T150405"
)

// ICSExporter iCalendar 导出器
type ICSExporter struct {
	calName string
}

// NewICSExporter 创建导出器
func NewICSExporter(calName string) *ICSExporter {
	if calName == "" {
		calName = "排班日历"
	}
	return &ICSExporter{calName: calName}
}

// ExportEmployee 导出单个员工的全部分配，取消的分配不导出
// 生成的事件使用本地浮动时间，夜班跨越午夜
func (e *ICSExporter) ExportEmployee(emp *model.Employee, assignments []*model.Assignment, projects map[uuid.UUID]*model.Project) (string, error) {
	var events []*model.Assignment
	for _, a := range assignments {
		if a.EmployeeID != emp.ID || !a.IsCounted() {
			continue
		}
		events = append(events, a)
	}

	sort.Slice(events, func(i, j int) bool {
		if !events[i].StartTime.Equal(events[j].StartTime) {
			return events[i].StartTime.Before(events[j].StartTime)
		}
		return events[i].ID.String() < events[j].ID.String()
	})

	var b strings.Builder
	writeLine(&b, "BEGIN:VCALENDAR")
	writeLine(&b, "VERSION:2.0")
	writeLine(&b, "PRODID:"+prodID)
	writeLine(&b, "CALSCALE:GREGORIAN")
	writeLine(&b, "X-WR-CALNAME:"+escapeText(e.calName+" - "+emp.Name))

	now := time.Now().UTC().Format(icsTimeFmt) + "Z"

	for _, a := range events {
		tr := a.TimeRange()

		summary := a.ShiftType.Label()
		if p, ok := projects[a.ProjectID]; ok {
			summary = fmt.Sprintf("%s - %s", a.ShiftType.Label(), p.Name)
		}

		writeLine(&b, "BEGIN:VEVENT")
		writeLine(&b, "UID:"+a.ID.String()+"@paigong")
		writeLine(&b, "DTSTAMP:"+now)
		writeLine(&b, "DTSTART:"+tr.Start.Format(icsTimeFmt))
		writeLine(&b, "DTEND:"+tr.End.Format(icsTimeFmt))
		writeLine(&b, "SUMMARY:"+escapeText(summary))
		if a.Notes != "" {
			writeLine(&b, "DESCRIPTION:"+escapeText(a.Notes))
		}
		if a.Status == model.AssignmentReported {
			writeLine(&b, "STATUS:TENTATIVE")
		} else {
			writeLine(&b, "STATUS:CONFIRMED")
		}
		writeLine(&b, "END:VEVENT")
	}

	writeLine(&b, "END:VCALENDAR")
	return b.String(), nil
}

// writeLine 写一行并按 RFC 5545 折叠超长行
// 折叠点退避到 UTF-8 字符边界，多字节字符不被截断
func writeLine(b *strings.Builder, line string) {
	const maxLen = 75
	for len(line) > maxLen {
		cut := maxLen
		for cut > 0 && line[cut]&0xC0 == 0x80 {
			cut--
		}
		b.WriteString(line[:cut])
		b.WriteString("\r\n ")
		line = line[cut:]
	}
	b.WriteString(line)
	b.WriteString("\r\n")
}

// escapeText 转义 ICS 文本字段
func escapeText(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
