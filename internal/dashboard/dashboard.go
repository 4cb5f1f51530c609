// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package dashboard assembles the presentation payload shown to an
// authenticated user. It is pure computation over a resolved identity and
// performs no storage access.
package dashboard

import (
	"fmt"
	"time"

	"github.com/gatehouse/gatehouse/internal/auth"
)

// UserInfo is the externally visible slice of a user record. The password
// hash never leaves the auth package boundary through this type.
type UserInfo struct {
	ID              int64      `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	FullName        string     `json:"full_name"`
	IsActive        bool       `json:"is_active"`
	IsAuthenticated bool       `json:"is_authenticated"`
	LastLogin       *time.Time `json:"last_login"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Data is the full dashboard payload for one user.
type Data struct {
	UserInfo        UserInfo  `json:"user_info"`
	LoginTime       time.Time `json:"login_time"`
	SessionDuration string    `json:"session_duration"`
	WelcomeMessage  string    `json:"welcome_message"`
}

// Statistics summarizes account-level facts for the dashboard sidebar.
type Statistics struct {
	AccountAgeDays int    `json:"account_age_days"`
	LastActivity   string `json:"last_activity"`
	AccountStatus  string `json:"account_status"`
}

// For assembles the dashboard payload for the user as of now.
func For(user *auth.User, now time.Time) Data {
	loginTime := now
	if user.LastLogin != nil {
		loginTime = *user.LastLogin
	}

	return Data{
		UserInfo: UserInfo{
			ID:              user.ID,
			Username:        user.Username,
			Email:           user.Email,
			FullName:        user.FullName,
			IsActive:        user.IsActive,
			IsAuthenticated: user.IsAuthenticated,
			LastLogin:       user.LastLogin,
			CreatedAt:       user.CreatedAt,
		},
		LoginTime:       loginTime,
		SessionDuration: SessionDuration(user.LastLogin, now),
		WelcomeMessage:  WelcomeMessage(user, now),
	}
}

// SessionDuration renders the elapsed time since last login as a coarse
// human-readable string, or "Unknown" when the user never logged in.
func SessionDuration(lastLogin *time.Time, now time.Time) string {
	if lastLogin == nil {
		return "Unknown"
	}

	elapsed := now.Sub(*lastLogin)
	switch {
	case elapsed < time.Minute:
		return fmt.Sprintf("%d seconds", int(elapsed.Seconds()))
	case elapsed < time.Hour:
		return fmt.Sprintf("%d minutes", int(elapsed.Minutes()))
	default:
		hours := int(elapsed.Hours())
		minutes := int(elapsed.Minutes()) % 60
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
}

// WelcomeMessage builds the time-of-day greeting for the user.
func WelcomeMessage(user *auth.User, now time.Time) string {
	var greeting string
	switch hour := now.UTC().Hour(); {
	case hour >= 5 && hour < 12:
		greeting = "Good morning"
	case hour >= 12 && hour < 17:
		greeting = "Good afternoon"
	default:
		greeting = "Good evening"
	}
	return fmt.Sprintf("%s, %s! Welcome to your dashboard.", greeting, user.FullName)
}

// StatisticsFor summarizes account-level facts for the user as of now.
func StatisticsFor(user *auth.User, now time.Time) Statistics {
	lastActivity := "Never"
	if user.LastLogin != nil {
		lastActivity = user.LastLogin.Format("2006-01-02 15:04:05")
	}

	status := "Inactive"
	if user.IsActive {
		status = "Active"
	}

	return Statistics{
		AccountAgeDays: int(now.Sub(user.CreatedAt).Hours() / 24),
		LastActivity:   lastActivity,
		AccountStatus:  status,
	}
}
