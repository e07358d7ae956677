package db

import "database/sql"

type Topic struct {
	ID           string
	Grp          string
	Title        string
	Link         string
	Source       string
	IsUserSource bool
	Body         string
	Tags         string
	Votes        int64
	CommentCount int64
	PostedAt     sql.NullInt64
	ArchivedAt   int64
}

type TopicComment struct {
	TopicID      string
	ID           string
	Idx          int64
	ParentID     string
	ThreadRootID string
	Author       string
	Body         string
	Votes        int64
	Depth        int64
	TotalCount   int64
	Removal      string
	PostedAt     sql.NullInt64
}
