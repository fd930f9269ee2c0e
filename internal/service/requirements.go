package service

import "github.com/lucksec/cloudarchitect/internal/domain"

// ResolveRequirements 逐字段合并：partial 中提供的字段优先，其余取 defaults
func ResolveRequirements(partial domain.WorkloadUpdate, defaults domain.WorkloadRequirements) domain.WorkloadRequirements {
	out := defaults
	if partial.Title != nil {
		out.Title = *partial.Title
	}
	if partial.Description != nil {
		out.Description = *partial.Description
	}
	if partial.MonthlyRequests != nil {
		out.MonthlyRequests = *partial.MonthlyRequests
	}
	if partial.DataPerRequestKB != nil {
		out.DataPerRequestKB = *partial.DataPerRequestKB
	}
	if partial.LatencySensitivity != nil {
		out.LatencySensitivity = *partial.LatencySensitivity
	}
	if partial.DataResidency != nil {
		out.DataResidency = *partial.DataResidency
	}
	if partial.Sensitivity != nil {
		out.Sensitivity = *partial.Sensitivity
	}
	if partial.Complexity != nil {
		out.Complexity = *partial.Complexity
	}
	if partial.Style != nil {
		out.Style = *partial.Style
	}
	return out
}
