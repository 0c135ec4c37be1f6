// Package swap 提供换班与缺口补位功能
package swap

import (
	"sort"

	"github.com/google/uuid"
	"github.com/paigong/paigong/pkg/model"
	"github.com/paigong/paigong/pkg/scheduler/constraint"
)

// Recommender 换班与补位推荐器
type Recommender struct {
	evaluator *Evaluator
}

// NewRecommender 创建推荐器
func NewRecommender(cm *constraint.Manager) *Recommender {
	return &Recommender{
		evaluator: NewEvaluator(cm),
	}
}

// Recommendation 推荐条目
type Recommendation struct {
	Employee      *model.Employee `json:"employee"`
	Score         int             `json:"score"`
	Reason        string          `json:"reason"`
	ImpactSummary string          `json:"impact_summary"`
	Rank          int             `json:"rank"`
}

// Options 推荐选项
type Options struct {
	MaxRecommendations int         // 最大推荐数量
	ExcludeEmployees   []uuid.UUID // 排除的员工
}

// DefaultOptions 返回默认选项
func DefaultOptions() *Options {
	return &Options{
		MaxRecommendations: 5,
	}
}

// RecommendTakeOvers 为一个已有分配推荐可接替的员工
func (r *Recommender) RecommendTakeOvers(ctx *constraint.Context, source *model.Assignment, options *Options) []Recommendation {
	if options == nil {
		options = DefaultOptions()
	}

	excludeSet := make(map[uuid.UUID]bool)
	excludeSet[source.EmployeeID] = true
	for _, id := range options.ExcludeEmployees {
		excludeSet[id] = true
	}

	var candidates []Recommendation
	for _, emp := range ctx.Employees {
		if excludeSet[emp.ID] {
			continue
		}

		evaluation := r.evaluator.EvaluateTakeOver(ctx, source, emp)
		if !evaluation.Feasible {
			continue
		}

		candidates = append(candidates, Recommendation{
			Employee:      emp,
			Score:         evaluation.Score,
			Reason:        "满足全部硬规则，可接替此班次",
			ImpactSummary: describeChange(evaluation.HoursChange),
		})
	}

	return rank(candidates, options.MaxRecommendations)
}

// RecommendBackfills 为未填满的单元推荐补位员工
// 给运行后的缺口提供可操作的处理建议
func (r *Recommender) RecommendBackfills(ctx *constraint.Context, unfilled model.UnfilledSlot, options *Options) []Recommendation {
	if options == nil {
		options = DefaultOptions()
	}

	excludeSet := make(map[uuid.UUID]bool)
	for _, id := range options.ExcludeEmployees {
		excludeSet[id] = true
	}

	var candidates []Recommendation
	for _, emp := range ctx.Employees {
		if excludeSet[emp.ID] {
			continue
		}

		evaluation := r.evaluator.EvaluateBackfill(ctx, unfilled, emp)
		if !evaluation.Feasible {
			continue
		}

		candidates = append(candidates, Recommendation{
			Employee:      emp,
			Score:         evaluation.Score,
			Reason:        "满足全部硬规则，可补位此缺口",
			ImpactSummary: describeChange(evaluation.HoursChange),
		})
	}

	return rank(candidates, options.MaxRecommendations)
}

// rank 排序、截断并编号
// 得分相同按员工ID排序，保证推荐结果可复现
func rank(candidates []Recommendation, max int) []Recommendation {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Employee.ID.String() < candidates[j].Employee.ID.String()
	})

	if max > 0 && len(candidates) > max {
		candidates = candidates[:max]
	}

	for i := range candidates {
		candidates[i].Rank = i + 1
	}

	return candidates
}
