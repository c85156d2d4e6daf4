// Package mapper converts between domain models and transport DTOs.
package mapper

import (
	"taskhub/internal/entities"
	"taskhub/internal/transport/http/dto"
)

// ToDTOUser maps entities.User to its transport model, dropping the hash.
func ToDTOUser(u entities.User) dto.User {
	return dto.User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// ToDTOUserList maps a slice of users.
func ToDTOUserList(users []entities.User) []dto.User {
	res := make([]dto.User, 0, len(users))
	for _, u := range users {
		res = append(res, ToDTOUser(u))
	}
	return res
}

// ToDTOTokenPair maps an issued pair to its transport model.
func ToDTOTokenPair(p entities.TokenPair) dto.TokenPair {
	return dto.TokenPair{
		AccessToken:  p.Access,
		RefreshToken: p.Refresh,
		TokenType:    "Bearer",
	}
}

// ToDTOTask maps entities.Task to its transport model.
func ToDTOTask(t entities.Task) dto.Task {
	return dto.Task{
		ID:          t.ID,
		OwnerID:     t.OwnerID,
		Title:       t.Title,
		Notes:       t.Notes,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		DueAt:       t.DueAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		CompletedAt: t.CompletedAt,
	}
}

// ToDTOTaskList maps a slice of tasks.
func ToDTOTaskList(tasks []entities.Task) []dto.Task {
	res := make([]dto.Task, 0, len(tasks))
	for _, t := range tasks {
		res = append(res, ToDTOTask(t))
	}
	return res
}

// ToDTOExportJob maps entities.ExportJob to its transport model.
func ToDTOExportJob(j entities.ExportJob) dto.ExportJob {
	return dto.ExportJob{
		ID:          j.ID,
		OwnerID:     j.OwnerID,
		Kind:        string(j.Kind),
		Status:      string(j.Status),
		Attempts:    j.Attempts,
		MaxAttempts: j.MaxAttempts,
		Error:       j.Error,
		ArtifactURL: j.ArtifactURL,
		CreatedAt:   j.CreatedAt,
		StartedAt:   j.StartedAt,
		FinishedAt:  j.FinishedAt,
	}
}

// ToDTOExportJobList maps a slice of export jobs.
func ToDTOExportJobList(jobs []entities.ExportJob) []dto.ExportJob {
	res := make([]dto.ExportJob, 0, len(jobs))
	for _, j := range jobs {
		res = append(res, ToDTOExportJob(j))
	}
	return res
}

// TaskFromCreateRequest builds the entity the usecase expects; identity
// fields are assigned there.
func TaskFromCreateRequest(req dto.CreateTaskRequest) entities.Task {
	return entities.Task{
		Title:    req.Title,
		Notes:    req.Notes,
		Priority: entities.TaskPriority(req.Priority),
		DueAt:    req.DueAt,
	}
}

// TaskPatchFromUpdateRequest builds the patch the usecase expects.
func TaskPatchFromUpdateRequest(req dto.UpdateTaskRequest) entities.TaskPatch {
	patch := entities.TaskPatch{
		Title:    req.Title,
		Notes:    req.Notes,
		DueAt:    req.DueAt,
		ClearDue: req.ClearDue,
	}
	if req.Priority != nil {
		priority := entities.TaskPriority(*req.Priority)
		patch.Priority = &priority
	}
	return patch
}
