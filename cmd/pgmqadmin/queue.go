package main

import (
	"fmt"

	// Packages
	httpclient "github.com/mutablelogic/go-pgmq/pkg/pgmq/httpclient"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type QueueCommands struct {
	ListQueue   ListQueueCommand   `cmd:"" name:"queues" help:"List queues." group:"QUEUE"`
	GetQueue    GetQueueCommand    `cmd:"" name:"queue" help:"Get queue metrics." group:"QUEUE"`
	CreateQueue CreateQueueCommand `cmd:"" name:"create-queue" help:"Create queue." group:"QUEUE"`
	DeleteQueue DeleteQueueCommand `cmd:"" name:"delete-queue" help:"Delete queue and its messages." group:"QUEUE"`
}

type ListQueueCommand struct {
	Offset uint64  `name:"offset" help:"Offset for pagination"`
	Limit  *uint64 `name:"limit" help:"Limit for pagination"`
}

type GetQueueCommand struct {
	Name string `arg:"" name:"name" help:"Queue name"`
}

type CreateQueueCommand struct {
	Name string `arg:"" name:"name" help:"Queue name"`
}

type DeleteQueueCommand struct {
	Name string `arg:"" name:"name" help:"Queue name"`
}

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *ListQueueCommand) Run(ctx *Globals) (err error) {
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// OTEL
	parent, endSpan := ctx.StartSpan("ListQueueCommand")
	defer func() { endSpan(err) }()

	// List queues
	queues, err := client.ListQueues(parent, httpclient.WithOffsetLimit(cmd.Offset, cmd.Limit))
	if err != nil {
		return err
	}

	// Print
	fmt.Println(queues)
	return nil
}

func (cmd *GetQueueCommand) Run(ctx *Globals) (err error) {
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// OTEL
	parent, endSpan := ctx.StartSpan("GetQueueCommand")
	defer func() { endSpan(err) }()

	// Get queue metrics
	stats, err := client.GetQueueStats(parent, cmd.Name)
	if err != nil {
		return err
	}

	// Print
	fmt.Println(stats)
	return nil
}

func (cmd *CreateQueueCommand) Run(ctx *Globals) (err error) {
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// OTEL
	parent, endSpan := ctx.StartSpan("CreateQueueCommand")
	defer func() { endSpan(err) }()

	// Create queue
	queue, err := client.CreateQueue(parent, cmd.Name)
	if err != nil {
		return err
	}

	// Print
	fmt.Println(queue)
	return nil
}

func (cmd *DeleteQueueCommand) Run(ctx *Globals) (err error) {
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// OTEL
	parent, endSpan := ctx.StartSpan("DeleteQueueCommand")
	defer func() { endSpan(err) }()

	// Delete queue
	ok, err := client.DeleteQueue(parent, cmd.Name)
	if err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("queue %q was not deleted", cmd.Name)
	}

	// Print
	fmt.Println("deleted", cmd.Name)
	return nil
}
