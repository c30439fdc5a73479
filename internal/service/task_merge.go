package service

import "github.com/UKHomeOffice/cop-ui/internal/model"

// 分组字段
const (
	GroupByCategory    = "category"
	GroupByBusinessKey = "businessKey"
	GroupByPriority    = "priority"
	GroupByAssignee    = "assignee"
)

// 优先级档位
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// MergeTasks 按任务 ID 合并
// 保留已有顺序,ID 冲突时以新数据为准,新 ID 追加在末尾。输入不会被修改。
func MergeTasks(existing, incoming []*model.Task) []*model.Task {
	merged := make([]*model.Task, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing)+len(incoming))

	for _, task := range existing {
		if pos, ok := index[task.ID]; ok {
			merged[pos] = task
			continue
		}
		index[task.ID] = len(merged)
		merged = append(merged, task)
	}

	for _, task := range incoming {
		if pos, ok := index[task.ID]; ok {
			merged[pos] = task
			continue
		}
		index[task.ID] = len(merged)
		merged = append(merged, task)
	}

	return merged
}

// TaskGroup 分组后的任务
type TaskGroup struct {
	Key   string        `json:"key"`
	Tasks []*model.Task `json:"tasks"`
}

// GroupTasks 按字段分组,分组按首次出现的顺序排列,组内保持原顺序
func GroupTasks(tasks []*model.Task, groupBy string) []TaskGroup {
	groups := []TaskGroup{}
	index := make(map[string]int)

	for _, task := range tasks {
		key := groupKey(task, groupBy)
		pos, ok := index[key]
		if !ok {
			pos = len(groups)
			index[key] = pos
			groups = append(groups, TaskGroup{Key: key, Tasks: []*model.Task{}})
		}
		groups[pos].Tasks = append(groups[pos].Tasks, task)
	}

	return groups
}

// groupKey 任务在指定字段下的分组键
func groupKey(task *model.Task, groupBy string) string {
	switch groupBy {
	case GroupByBusinessKey:
		return task.BusinessKey
	case GroupByPriority:
		return PriorityLabel(task.Priority)
	case GroupByAssignee:
		return task.AssigneeValue()
	default:
		return task.Category
	}
}

// ValidGroupBy 判断分组字段是否支持
func ValidGroupBy(groupBy string) bool {
	switch groupBy {
	case GroupByCategory, GroupByBusinessKey, GroupByPriority, GroupByAssignee:
		return true
	}
	return false
}

// PriorityLabel 将数值优先级映射为档位
func PriorityLabel(priority int) string {
	switch {
	case priority >= 1000:
		return PriorityHigh
	case priority >= 100:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// uniqueIDs 按首次出现顺序去重
func uniqueIDs(tasks []*model.Task, id func(*model.Task) string) []string {
	seen := make(map[string]bool, len(tasks))
	ids := make([]string, 0, len(tasks))
	for _, task := range tasks {
		v := id(task)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		ids = append(ids, v)
	}
	return ids
}

