package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"tildes-client/internal/assert"
	"tildes-client/internal/components/chrono"
	"tildes-client/internal/components/telemetry"
	"tildes-client/internal/db"
	"tildes-client/internal/scrapers/tildes"
)

const (
	report_db_query    = "db.query"
	report_save_thread = "archive.save-thread"
)

var ErrNotArchived = errors.New("topic has not been archived")

// Thread is an archived topic and its flattened comment tree.
type Thread struct {
	Post       tildes.Post
	Comments   []tildes.Comment
	ArchivedAt time.Time
}

// Store keeps copies of topic pages in a sql database, saving a topic again
// replaces the previous copy.
type Store struct {
	db     *db.Queries
	makeTx db.MakeTx
	clock  chrono.API
	tel    telemetry.API
}

func NewStore(
	qry *db.Queries,
	makeTx db.MakeTx,
	clock chrono.API,
	tel telemetry.API,
) Store {
	assert.NotNil(qry)
	assert.NotNil(makeTx)
	assert.NotNil(clock)
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("archive", tel)

	return Store{
		db:     qry,
		makeTx: makeTx,
		clock:  clock,
		tel:    tel,
	}
}

func unixOrNull(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func timeOrZero(v sql.NullInt64) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	return time.Unix(v.Int64, 0).UTC()
}

func removalOf(s string) tildes.RemovalReason {
	switch s {
	case tildes.RemovalAdmin.String():
		return tildes.RemovalAdmin
	case tildes.RemovalUser.String():
		return tildes.RemovalUser
	default:
		return tildes.RemovalNone
	}
}

// SaveThread stores the page, it returns the time the page was archived at.
func (s Store) SaveThread(ctx context.Context, page tildes.PostPage) (time.Time, error) {
	post := page.Post
	if post.Id == "" {
		err := fmt.Errorf("topic has no id")
		s.tel.ReportBroken(report_save_thread, err)
		return time.Time{}, err
	}
	now := s.clock.Now()

	tx, discard, commit, err := s.makeTx()
	if err != nil {
		s.tel.ReportBroken(report_save_thread, err)
		return time.Time{}, err
	}
	defer discard()

	topic := db.Topic{
		ID:           post.Id,
		Grp:          post.Group,
		Title:        post.Title,
		Link:         post.Link,
		Source:       post.Source,
		IsUserSource: post.IsUserSource,
		Body:         post.Body,
		Tags:         strings.Join(post.Tags, ","),
		Votes:        int64(post.Votes),
		CommentCount: int64(post.Comments),
		PostedAt:     unixOrNull(post.Date),
		ArchivedAt:   now.Unix(),
	}
	err = tx.UpsertTopic(ctx, topic)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "UpsertTopic", topic.ID)
		return time.Time{}, err
	}
	err = tx.DeleteTopicComments(ctx, post.Id)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "DeleteTopicComments", post.Id)
		return time.Time{}, err
	}

	for i, c := range page.Comments.Comments {
		param := db.TopicComment{
			TopicID:      post.Id,
			ID:           c.Id,
			Idx:          int64(i),
			ParentID:     c.ParentId,
			ThreadRootID: c.ThreadRootId,
			Author:       c.User,
			Body:         c.Body,
			Votes:        int64(c.Votes),
			Depth:        int64(c.Depth),
			TotalCount:   int64(c.TotalCount),
			Removal:      c.RemovalReason.String(),
			PostedAt:     unixOrNull(c.Created),
		}
		err = tx.CreateTopicComment(ctx, param)
		if err != nil {
			s.tel.ReportBroken(report_db_query, err, "CreateTopicComment", post.Id, c.Id)
			return time.Time{}, err
		}
	}

	err = commit()
	if err != nil {
		s.tel.ReportBroken(report_save_thread, err)
		return time.Time{}, err
	}
	return time.Unix(now.Unix(), 0).UTC(), nil
}

func topicToPost(topic db.Topic) tildes.Post {
	var tags []string
	if topic.Tags != "" {
		tags = strings.Split(topic.Tags, ",")
	}
	return tildes.Post{
		FeedItem: tildes.FeedItem{
			Id:           topic.ID,
			Title:        topic.Title,
			Link:         topic.Link,
			Group:        topic.Grp,
			Tags:         tags,
			Comments:     int(topic.CommentCount),
			Source:       topic.Source,
			IsUserSource: topic.IsUserSource,
			Votes:        int(topic.Votes),
			Date:         timeOrZero(topic.PostedAt),
		},
		Body: topic.Body,
	}
}

// LoadThread returns ErrNotArchived when the topic was never saved.
func (s Store) LoadThread(ctx context.Context, topicId string) (Thread, error) {
	topic, err := s.db.GetTopic(ctx, topicId)
	if errors.Is(err, sql.ErrNoRows) {
		return Thread{}, ErrNotArchived
	}
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "GetTopic", topicId)
		return Thread{}, err
	}

	rows, err := s.db.GetTopicComments(ctx, topicId)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "GetTopicComments", topicId)
		return Thread{}, err
	}

	thread := Thread{
		Post:       topicToPost(topic),
		ArchivedAt: time.Unix(topic.ArchivedAt, 0).UTC(),
	}
	for _, row := range rows {
		removal := removalOf(row.Removal)
		basic := tildes.BasicComment{
			Id:            row.ID,
			Depth:         int(row.Depth),
			IsRemoved:     removal != tildes.RemovalNone,
			RemovalReason: removal,
			Group:         topic.Grp,
			PostId:        topic.ID,
			Body:          row.Body,
			User:          row.Author,
			Created:       timeOrZero(row.PostedAt),
			Votes:         int(row.Votes),
		}
		thread.Comments = append(thread.Comments, tildes.Materialize(basic, tildes.MaterializeOptions{
			TotalCount:   int(row.TotalCount),
			ParentId:     row.ParentID,
			ThreadRootId: row.ThreadRootID,
		}))
	}
	return thread, nil
}

// ListTopics returns every archived topic, most recently archived first.
func (s Store) ListTopics(ctx context.Context) ([]tildes.Post, error) {
	topics, err := s.db.ListTopics(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "ListTopics")
		return nil, err
	}
	posts := make([]tildes.Post, len(topics))
	for i, topic := range topics {
		posts[i] = topicToPost(topic)
	}
	return posts, nil
}
