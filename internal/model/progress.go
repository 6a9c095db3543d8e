package model

// ProgressPercent = round(100 * completed / total)，total 为 0 时返回 0
func ProgressPercent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	if completed < 0 {
		completed = 0
	}
	// 整数四舍五入，.5 向上
	return (200*completed + total) / (2 * total)
}

// Progress 根据完整的节点列表计算进度
func Progress(items []TimelineItem) int {
	completed := 0
	for _, it := range items {
		if it.Status == TimelineCompleted {
			completed++
		}
	}
	return ProgressPercent(completed, len(items))
}
