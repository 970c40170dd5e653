package pipeline

import (
	"strconv"
	"strings"

	"quiz-forge/internal/domain"
)

// TypeQuota is the number of questions planned for one question type.
type TypeQuota struct {
	Type  domain.QuestionType
	Count int
}

// PlanDistribution spreads total evenly over the requested types. The input is
// a multiset: a type listed twice gets two shares. Remainders go to the earliest
// entries. The plan lists each type once, in first-appearance order.
func PlanDistribution(total int, types []domain.QuestionType) []TypeQuota {
	if len(types) == 0 {
		types = []domain.QuestionType{domain.QuestionTypeMultipleChoice}
	}
	if total < 0 {
		total = 0
	}

	base := total / len(types)
	remainder := total % len(types)

	index := make(map[domain.QuestionType]int)
	var plan []TypeQuota
	for i, t := range types {
		share := base
		if i < remainder {
			share++
		}
		if pos, ok := index[t]; ok {
			plan[pos].Count += share
			continue
		}
		index[t] = len(plan)
		plan = append(plan, TypeQuota{Type: t, Count: share})
	}
	return plan
}

// DescribePlan renders the plan as instruction lines.
func DescribePlan(plan []TypeQuota) string {
	lines := make([]string, 0, len(plan))
	for _, q := range plan {
		lines = append(lines, "- "+string(q.Type)+": "+strconv.Itoa(q.Count))
	}
	return strings.Join(lines, "\n")
}

// ApplyDistribution reorders questions so each planned type forms one
// contiguous block in plan order and keeps the blueprint aligned with the new
// order. Blocks are first cut to their quota; when that leaves the quiz short
// of the planned total, surplus questions of planned types grow their blocks
// (earlier plan entries first) before questions of unplanned types are appended.
// The result never exceeds the planned total.
func ApplyDistribution(result *domain.GenerationResult, plan []TypeQuota) {
	total := 0
	quota := make(map[domain.QuestionType]int, len(plan))
	for _, q := range plan {
		quota[q.Type] = q.Count
		total += q.Count
	}

	blueprintFor := func(i int) domain.BlueprintItem {
		if i < len(result.Blueprint) {
			return result.Blueprint[i]
		}
		return domain.BlueprintItem{CognitiveLevel: result.Questions[i].CognitiveLevel}
	}

	buckets := make(map[domain.QuestionType][]int)
	var extras []int
	for i, q := range result.Questions {
		if _, planned := quota[q.Type]; planned {
			buckets[q.Type] = append(buckets[q.Type], i)
		} else {
			extras = append(extras, i)
		}
	}

	keep := make([]int, len(plan))
	kept := 0
	for n, q := range plan {
		keep[n] = min(len(buckets[q.Type]), q.Count)
		kept += keep[n]
	}
	for n, q := range plan {
		if total > 0 && kept >= total {
			break
		}
		surplus := len(buckets[q.Type]) - keep[n]
		if surplus <= 0 {
			continue
		}
		grow := surplus
		if total > 0 {
			grow = min(surplus, total-kept)
		}
		keep[n] += grow
		kept += grow
	}

	order := make([]int, 0, len(result.Questions))
	for n, q := range plan {
		order = append(order, buckets[q.Type][:keep[n]]...)
	}
	order = append(order, extras...)
	if total > 0 && len(order) > total {
		order = order[:total]
	}

	questions := make([]domain.Question, 0, len(order))
	blueprint := make([]domain.BlueprintItem, 0, len(order))
	for n, i := range order {
		questions = append(questions, result.Questions[i])
		bp := blueprintFor(i)
		bp.QuestionNumber = n + 1
		if bp.CognitiveLevel == "" {
			bp.CognitiveLevel = result.Questions[i].CognitiveLevel
		}
		blueprint = append(blueprint, bp)
	}
	result.Questions = questions
	result.Blueprint = blueprint
}
