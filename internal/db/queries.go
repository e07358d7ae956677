package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const upsertTopic = `
insert into Topic(id, grp, title, link, source, is_user_source, body, tags, votes, comment_count, posted_at, archived_at)
values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
on conflict (id) do update set
    grp = excluded.grp,
    title = excluded.title,
    link = excluded.link,
    source = excluded.source,
    is_user_source = excluded.is_user_source,
    body = excluded.body,
    tags = excluded.tags,
    votes = excluded.votes,
    comment_count = excluded.comment_count,
    posted_at = excluded.posted_at,
    archived_at = excluded.archived_at
`

func (q *Queries) UpsertTopic(ctx context.Context, arg Topic) error {
	_, err := q.db.ExecContext(ctx, upsertTopic,
		arg.ID,
		arg.Grp,
		arg.Title,
		arg.Link,
		arg.Source,
		arg.IsUserSource,
		arg.Body,
		arg.Tags,
		arg.Votes,
		arg.CommentCount,
		arg.PostedAt,
		arg.ArchivedAt,
	)
	return err
}

const deleteTopicComments = `
delete from TopicComment where topic_id = ?
`

func (q *Queries) DeleteTopicComments(ctx context.Context, topicID string) error {
	_, err := q.db.ExecContext(ctx, deleteTopicComments, topicID)
	return err
}

const createTopicComment = `
insert into TopicComment(topic_id, id, idx, parent_id, thread_root_id, author, body, votes, depth, total_count, removal, posted_at)
values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateTopicComment(ctx context.Context, arg TopicComment) error {
	_, err := q.db.ExecContext(ctx, createTopicComment,
		arg.TopicID,
		arg.ID,
		arg.Idx,
		arg.ParentID,
		arg.ThreadRootID,
		arg.Author,
		arg.Body,
		arg.Votes,
		arg.Depth,
		arg.TotalCount,
		arg.Removal,
		arg.PostedAt,
	)
	return err
}

const getTopic = `
select id, grp, title, link, source, is_user_source, body, tags, votes, comment_count, posted_at, archived_at
from Topic where id = ?
`

func (q *Queries) GetTopic(ctx context.Context, id string) (Topic, error) {
	row := q.db.QueryRowContext(ctx, getTopic, id)
	var i Topic
	err := row.Scan(
		&i.ID,
		&i.Grp,
		&i.Title,
		&i.Link,
		&i.Source,
		&i.IsUserSource,
		&i.Body,
		&i.Tags,
		&i.Votes,
		&i.CommentCount,
		&i.PostedAt,
		&i.ArchivedAt,
	)
	return i, err
}

const getTopicComments = `
select topic_id, id, idx, parent_id, thread_root_id, author, body, votes, depth, total_count, removal, posted_at
from TopicComment where topic_id = ?
order by idx asc
`

func (q *Queries) GetTopicComments(ctx context.Context, topicID string) ([]TopicComment, error) {
	rows, err := q.db.QueryContext(ctx, getTopicComments, topicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TopicComment
	for rows.Next() {
		var i TopicComment
		if err := rows.Scan(
			&i.TopicID,
			&i.ID,
			&i.Idx,
			&i.ParentID,
			&i.ThreadRootID,
			&i.Author,
			&i.Body,
			&i.Votes,
			&i.Depth,
			&i.TotalCount,
			&i.Removal,
			&i.PostedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listTopics = `
select id, grp, title, link, source, is_user_source, body, tags, votes, comment_count, posted_at, archived_at
from Topic
order by archived_at desc, id asc
`

func (q *Queries) ListTopics(ctx context.Context) ([]Topic, error) {
	rows, err := q.db.QueryContext(ctx, listTopics)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Topic
	for rows.Next() {
		var i Topic
		if err := rows.Scan(
			&i.ID,
			&i.Grp,
			&i.Title,
			&i.Link,
			&i.Source,
			&i.IsUserSource,
			&i.Body,
			&i.Tags,
			&i.Votes,
			&i.CommentCount,
			&i.PostedAt,
			&i.ArchivedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
