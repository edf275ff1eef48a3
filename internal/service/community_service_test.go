package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadnest/api/internal/dto"
)

func TestFetchCommunities_PaginatesNewestFirst(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.seedCommunity("org_1", "gophers", "Gophers")
	env.seedCommunity("org_2", "rustaceans", "Rustaceans")
	env.seedCommunity("org_3", "pythonistas", "Pythonistas")

	page1, err := env.communities.FetchCommunities(ctx, dto.CommunityFilter{Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page1.Data, 2)
	assert.True(t, page1.Meta.HasNext)

	page2, err := env.communities.FetchCommunities(ctx, dto.CommunityFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page2.Data, 1)
	assert.False(t, page2.Meta.HasNext)
}

func TestFetchCommunities_SearchFiltersByName(t *testing.T) {
	env := newTestEnv()
	env.seedCommunity("org_1", "gophers", "Gophers")
	env.seedCommunity("org_2", "rustaceans", "Rustaceans")

	result, err := env.communities.FetchCommunities(context.Background(), dto.CommunityFilter{Search: "goph"})
	require.NoError(t, err)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "org_1", result.Data[0].ExternalID)
}

func TestFetchCommunityDetails_IncludesMembers(t *testing.T) {
	env := newTestEnv()
	alice := env.seedUser("user_1", "alice", "Alice")
	community := env.seedCommunity("org_1", "gophers", "Gophers")
	community.Members = append(community.Members, alice)

	details, err := env.communities.FetchCommunityDetails(context.Background(), "org_1")
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.Equal(t, "gophers", details.Username)
	require.Len(t, details.Members, 1)
	assert.Equal(t, "Alice", details.Members[0].Name)
}

func TestFetchCommunityDetails_AbsentIsNotAnError(t *testing.T) {
	env := newTestEnv()

	details, err := env.communities.FetchCommunityDetails(context.Background(), "org_ghost")

	require.NoError(t, err)
	assert.Nil(t, details)
}

func TestFetchCommunityPosts_CarriesCommunityRef(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.seedUser("user_1", "alice", "Alice")
	env.seedCommunity("org_1", "gophers", "Gophers")

	id, err := env.threads.CreateThread(ctx, "user_1", dto.CreateThreadRequest{
		Text:        "community post",
		CommunityID: strPtrOf("org_1"),
		Path:        "/",
	})
	require.NoError(t, err)

	// Posted without a community, must not leak in.
	_, err = env.threads.CreateThread(ctx, "user_1", dto.CreateThreadRequest{Text: "homeless post", Path: "/"})
	require.NoError(t, err)

	posts, err := env.communities.FetchCommunityPosts(ctx, "org_1")
	require.NoError(t, err)
	require.NotNil(t, posts)
	assert.Equal(t, "org_1", posts.Community.ExternalID)
	require.Len(t, posts.Threads, 1)
	assert.Equal(t, id, posts.Threads[0].ID)
	require.NotNil(t, posts.Threads[0].Community)
	assert.Equal(t, "org_1", posts.Threads[0].Community.ExternalID)
}
