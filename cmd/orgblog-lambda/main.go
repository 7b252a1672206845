// Command orgblog-lambda serves the bundled posts from AWS Lambda behind API Gateway.
package main

import (
	"context"
	"log"

	"github.com/ancientlore/orgblog/content"
	"github.com/ancientlore/orgblog/posts"
	"github.com/ancientlore/orgblog/site"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/golang/groupcache"
)

var adapter *httpadapter.HandlerAdapter

func init() {
	groupcache.RegisterPeerPicker(func() groupcache.PeerPicker { return groupcache.NoPeers{} })

	cfg, err := site.LoadConfig(content.FS(), content.ConfigFile)
	if err != nil {
		log.Fatal(err)
	}
	ix, err := posts.Load(context.Background(), content.Posts(), &posts.Options{Strict: true})
	if err != nil {
		log.Fatalf("Cannot load posts: %s", err)
	}
	s, err := site.New(ix, &site.Options{
		Config:     cfg,
		Static:     content.Static(),
		CacheBytes: 4 * 1024 * 1024,
	})
	if err != nil {
		log.Fatalf("Cannot create site: %s", err)
	}
	adapter = httpadapter.New(s.Handler())
}

// Handler converts API Gateway requests into HTTP requests for the site.
func Handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return adapter.ProxyWithContext(ctx, req)
}

func main() {
	lambda.Start(Handler)
}
