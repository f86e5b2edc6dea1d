package daylog

import "daylog/internal/model"

// JoinTags merges the separately fetched client-tag and project-tag
// projections onto their tasks, matching by task ID. Input order is
// preserved; tasks without a matching row get nil. A project tag
// without a client tag is passed through as stored: consistency is a
// write-path concern, the read path surfaces what the store holds.
func JoinTags(tasks []model.Task, clientRows []model.ClientTagRow, projectRows []model.ProjectTagRow) []model.Task {
	clientByTask := make(map[string]model.ClientTagRow, len(clientRows))
	for _, row := range clientRows {
		clientByTask[row.TaskID] = row
	}
	projectByTask := make(map[string]model.ProjectTagRow, len(projectRows))
	for _, row := range projectRows {
		projectByTask[row.TaskID] = row
	}

	joined := make([]model.Task, len(tasks))
	for i, task := range tasks {
		task.ClientTag = nil
		task.ProjectTag = nil
		if row, ok := clientByTask[task.ID]; ok {
			row := row
			task.ClientTag = &row
		}
		if row, ok := projectByTask[task.ID]; ok {
			row := row
			task.ProjectTag = &row
		}
		joined[i] = task
	}
	return joined
}
