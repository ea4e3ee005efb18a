package model

// LeaderboardEntry is one row of the server-ranked leaderboard
type LeaderboardEntry struct {
	Username    string `json:"username"`
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
	Draws       int    `json:"draws"`
	GamesPlayed int    `json:"games_played"`
}
