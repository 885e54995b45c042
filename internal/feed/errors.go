package feed

import "errors"

var (
	ErrPostNotFound     = errors.New("post not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrVoteNotFound     = errors.New("vote not found")
	ErrSelfVote         = errors.New("you cannot vote on your own post")
	ErrRateLimited      = errors.New("you're voting too fast")
	ErrBlankBody        = errors.New("body can't be blank")
	ErrNotPostOwner     = errors.New("you can only delete your own posts")
	ErrSelfFollow       = errors.New("you cannot follow yourself")
	ErrAlreadyFollowing = errors.New("already following this user")
	ErrFollowNotFound   = errors.New("not following this user")
)
