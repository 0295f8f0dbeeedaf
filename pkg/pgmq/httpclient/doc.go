// Package httpclient provides a typed Go client for consuming the pgmq
// administration REST API.
//
// Create a client with:
//
//	client, err := httpclient.New("http://localhost:8080/api")
//	if err != nil {
//	   panic(err)
//	}
//
// Then use the client to manage queues and messages:
//
//	queues, err := client.ListQueues(ctx)
//	queue, err := client.CreateQueue(ctx, "orders")
//	ids, err := client.SendMessage(ctx, "orders", schema.MessageMeta{Message: `{"order_id":1001}`})
//	page, err := client.ListMessages(ctx, "orders", httpclient.WithPage(1, 20))
//	ok, err := client.ArchiveMessage(ctx, "orders", ids[0])
package httpclient
