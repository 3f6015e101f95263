package models

import "time"

// Submission status constants
const (
	StatusApproved  = "approved"
	StatusSubmitted = "submitted"
	StatusSuccess   = "success"
	StatusError     = "error"
)

// Request types

// Aspect is one raid loot pool entry.
type Aspect struct {
	Name          string `json:"name"`
	Rarity        string `json:"rarity"`
	RequiredClass string `json:"requiredClass"`
}

type LootPoolSubmissionRequest struct {
	Aspects []Aspect `json:"aspects"`
}

// LootItem is one lootrun loot pool entry. Type is normal, shiny or tome;
// ShinyStat is only set for shiny items.
type LootItem struct {
	Name      string `json:"name"`
	Rarity    string `json:"rarity"`
	Type      string `json:"type"`
	Tooltip   string `json:"tooltip"`
	ShinyStat string `json:"shinyStat"`
}

type LootrunSubmissionRequest struct {
	LootrunType string     `json:"lootrunType,omitempty"`
	Items       []LootItem `json:"items"`
}

// Gambit is one daily gambit entry.
type Gambit struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type GambitSubmissionRequest struct {
	Gambits []Gambit `json:"gambits"`
}

type HeartbeatRequest struct {
	ModVersion string `json:"modVersion"`
}

type AspectUploadRequest struct {
	PlayerName string       `json:"playerName"`
	ModVersion string       `json:"modVersion"`
	Aspects    []AspectData `json:"aspects"`
}

type AspectData struct {
	Name   string `json:"name"`
	Rarity string `json:"rarity"`
	Amount int    `json:"amount"`
}

type AchievementSyncRequest struct {
	ModVersion   string            `json:"modVersion"`
	Achievements []AchievementData `json:"achievements"`
}

type AchievementData struct {
	ID             string  `json:"id"`
	Category       string  `json:"category"`
	Progress       int     `json:"progress"`
	Tier           *string `json:"tier"`
	Unlocked       bool    `json:"unlocked"`
	UnlockedAt     *int64  `json:"unlockedAt"`     // epoch millis
	TierUpgradedAt *int64  `json:"tierUpgradedAt"` // epoch millis
}

// Response types

// LootPoolResponse mirrors the submission body so GET and the approved
// echo on POST share one shape.
type LootPoolResponse struct {
	Aspects []Aspect `json:"aspects"`
}

type LootrunPoolResponse struct {
	Items []LootItem `json:"items"`
}

type GambitsResponse struct {
	Gambits []Gambit `json:"gambits"`
}

type SubmitLootPoolResponse struct {
	Status   string            `json:"status"`
	Message  string            `json:"message"`
	LootPool *LootPoolResponse `json:"lootPool,omitempty"`
}

type SubmitLootrunResponse struct {
	Status   string               `json:"status"`
	Message  string               `json:"message"`
	LootPool *LootrunPoolResponse `json:"lootPool,omitempty"`
}

type SubmitGambitsResponse struct {
	Status  string           `json:"status"`
	Message string           `json:"message"`
	Gambits *GambitsResponse `json:"gambits,omitempty"`
}

type PlayerAspectsResponse struct {
	PlayerUUID  string       `json:"playerUuid"`
	PlayerName  string       `json:"playerName"`
	ModVersion  string       `json:"modVersion"`
	LastUpdated int64        `json:"lastUpdated"` // epoch millis
	Aspects     []AspectData `json:"aspects"`
}

type LeaderboardEntry struct {
	PlayerUUID     string `json:"playerUuid"`
	PlayerName     string `json:"playerName"`
	MaxAspectCount int64  `json:"maxAspectCount"`
}

type PlayerListEntry struct {
	PlayerUUID  string `json:"playerUuid"`
	PlayerName  string `json:"playerName"`
	ModVersion  string `json:"modVersion"`
	LastUpdated int64  `json:"lastUpdated"` // epoch millis
	AspectCount int64  `json:"aspectCount"`
}

type ActiveUsersResponse struct {
	UUIDs []string `json:"uuids"`
	Count int      `json:"count"`
}

type UserInfo struct {
	UUID       string `json:"uuid"`
	Username   string `json:"username"`
	ModVersion string `json:"modVersion"`
	LastSeen   int64  `json:"lastSeen"` // epoch millis
}

type ActiveUserDetailsResponse struct {
	Users []UserInfo `json:"users"`
	Count int        `json:"count"`
}

type SyncStats struct {
	Unlocked    int `json:"unlocked"`
	Bronze      int `json:"bronze"`
	Silver      int `json:"silver"`
	Gold        int `json:"gold"`
	TotalPoints int `json:"totalPoints"`
}

type AchievementSyncResponse struct {
	Status  string    `json:"status"`
	Message string    `json:"message"`
	Stats   SyncStats `json:"stats"`
}

type PlayerAchievement struct {
	ID             string     `json:"id"`
	Category       string     `json:"category"`
	Progress       int        `json:"progress"`
	Tier           *string    `json:"tier"`
	Unlocked       bool       `json:"unlocked"`
	UnlockedAt     *time.Time `json:"unlockedAt,omitempty"`
	TierUpgradedAt *time.Time `json:"tierUpgradedAt,omitempty"`
}

type PlayerAchievementsResponse struct {
	PlayerUUID   string              `json:"playerUuid"`
	PlayerName   string              `json:"playerName"`
	TotalPoints  int                 `json:"totalPoints"`
	Achievements []PlayerAchievement `json:"achievements"`
}

type AchievementLeaderboardEntry struct {
	PlayerUUID  string `json:"playerUuid"`
	PlayerName  string `json:"playerName"`
	TotalPoints int    `json:"totalPoints"`
	Unlocked    int    `json:"unlocked"`
	Gold        int    `json:"gold"`
	Silver      int    `json:"silver"`
	Bronze      int    `json:"bronze"`
}

type AchievementPlayerSummary struct {
	PlayerUUID  string `json:"playerUuid"`
	PlayerName  string `json:"playerName"`
	TotalPoints int    `json:"totalPoints"`
	Unlocked    int    `json:"unlocked"`
	Gold        int    `json:"gold"`
	Silver      int    `json:"silver"`
	Bronze      int    `json:"bronze"`
	LastSynced  int64  `json:"lastSynced"` // epoch millis
}

type AchievementPlayerListEntry struct {
	PlayerUUID  string `json:"playerUuid"`
	PlayerName  string `json:"playerName"`
	TotalPoints int    `json:"totalPoints"`
	Unlocked    int    `json:"unlocked"`
	LastSynced  int64  `json:"lastSynced"` // epoch millis
}

type AchievementPlayersResponse struct {
	Players []AchievementPlayerListEntry `json:"players"`
	Count   int                          `json:"count"`
}

type UserStatsResponse struct {
	ActiveUsers         int64 `json:"activeUsers"`
	TotalUsers          int64 `json:"totalUsers"`
	ActiveThresholdDays int   `json:"activeThresholdDays"`
}

type ReloadVerifiedUsersResponse struct {
	Status            string `json:"status"`
	Message           string `json:"message"`
	VerifiedUserCount int64  `json:"verifiedUserCount"`
}

type VerifiedUserCountResponse struct {
	VerifiedUserCount int64 `json:"verifiedUserCount"`
}

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
