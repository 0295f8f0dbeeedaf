package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	// Packages
	pg "github.com/mutablelogic/go-pgmq"
	httpclient "github.com/mutablelogic/go-pgmq/pkg/pgmq/httpclient"
	schema "github.com/mutablelogic/go-pgmq/pkg/pgmq/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type MessageCommands struct {
	ListMessages   ListMessagesCommand   `cmd:"" name:"messages" help:"List active messages in a queue." group:"MESSAGE"`
	ListArchived   ListArchivedCommand   `cmd:"" name:"archived" help:"List archived messages in a queue." group:"MESSAGE"`
	SendMessage    SendMessageCommand    `cmd:"" name:"send" help:"Send a message to a queue." group:"MESSAGE"`
	DeleteMessage  DeleteMessageCommand  `cmd:"" name:"delete-message" help:"Delete a message." group:"MESSAGE"`
	ArchiveMessage ArchiveMessageCommand `cmd:"" name:"archive-message" help:"Archive a message." group:"MESSAGE"`
}

type ListMessagesCommand struct {
	Queue    string `arg:"" name:"queue" help:"Queue name"`
	Page     uint64 `name:"page" help:"Page number, from 1"`
	PageSize uint64 `name:"page-size" help:"Messages per page"`
}

type ListArchivedCommand struct {
	ListMessagesCommand
}

type SendMessageCommand struct {
	Queue   string `arg:"" name:"queue" help:"Queue name"`
	Message string `arg:"" name:"message" optional:"" help:"JSON payload, or - to read from stdin"`
	File    string `name:"file" type:"existingfile" help:"Read the payload from a file, a JSON array is sent as one message per element"`
	Delay   int    `name:"delay" help:"Seconds before the message becomes visible" default:"0"`
}

type DeleteMessageCommand struct {
	Queue string `arg:"" name:"queue" help:"Queue name"`
	Id    int64  `arg:"" name:"id" help:"Message id"`
}

type ArchiveMessageCommand struct {
	DeleteMessageCommand
}

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *ListMessagesCommand) Run(ctx *Globals) (err error) {
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// OTEL
	parent, endSpan := ctx.StartSpan("ListMessagesCommand")
	defer func() { endSpan(err) }()

	// List messages
	page, err := client.ListMessages(parent, cmd.Queue, httpclient.WithPage(cmd.Page, cmd.PageSize))
	if err != nil {
		return err
	}

	// Print
	fmt.Println(page)
	return nil
}

func (cmd *ListArchivedCommand) Run(ctx *Globals) (err error) {
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// OTEL
	parent, endSpan := ctx.StartSpan("ListArchivedCommand")
	defer func() { endSpan(err) }()

	// List archived messages
	page, err := client.ListArchivedMessages(parent, cmd.Queue, httpclient.WithPage(cmd.Page, cmd.PageSize))
	if err != nil {
		return err
	}

	// Print
	fmt.Println(page)
	return nil
}

func (cmd *SendMessageCommand) Run(ctx *Globals) (err error) {
	messages, err := cmd.messages(os.Stdin)
	if err != nil {
		return err
	}

	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// OTEL
	parent, endSpan := ctx.StartSpan("SendMessageCommand")
	defer func() { endSpan(err) }()

	// Send messages
	ids, err := client.SendMessage(parent, cmd.Queue, messages...)
	if err != nil {
		return err
	}

	// Print
	fmt.Println(ids)
	return nil
}

func (cmd *DeleteMessageCommand) Run(ctx *Globals) (err error) {
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// OTEL
	parent, endSpan := ctx.StartSpan("DeleteMessageCommand")
	defer func() { endSpan(err) }()

	// Delete message
	ok, err := client.DeleteMessage(parent, cmd.Queue, cmd.Id)
	if err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("message %d in %q was not deleted", cmd.Id, cmd.Queue)
	}

	// Print
	fmt.Println("deleted", cmd.Id)
	return nil
}

func (cmd *ArchiveMessageCommand) Run(ctx *Globals) (err error) {
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// OTEL
	parent, endSpan := ctx.StartSpan("ArchiveMessageCommand")
	defer func() { endSpan(err) }()

	// Archive message
	ok, err := client.ArchiveMessage(parent, cmd.Queue, cmd.Id)
	if err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("message %d in %q was not archived", cmd.Id, cmd.Queue)
	}

	// Print
	fmt.Println("archived", cmd.Id)
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// messages returns the messages to send from the argument, the file or
// stdin. A file which contains a JSON array is split into one message per
// element.
func (cmd *SendMessageCommand) messages(stdin io.Reader) ([]schema.MessageMeta, error) {
	var data []byte
	var err error
	switch {
	case cmd.File != "" && cmd.Message != "":
		return nil, pg.ErrBadParameter.With("use either a message or --file")
	case cmd.File != "":
		data, err = os.ReadFile(cmd.File)
	case cmd.Message == "-":
		data, err = io.ReadAll(stdin)
	case cmd.Message != "":
		data = []byte(cmd.Message)
	default:
		return nil, pg.ErrBadParameter.With("missing message")
	}
	if err != nil {
		return nil, err
	}

	payload := strings.TrimSpace(string(data))
	if payload == "" {
		return nil, pg.ErrBadParameter.With("empty message")
	}
	if cmd.File == "" || !strings.HasPrefix(payload, "[") {
		return []schema.MessageMeta{{Message: payload, Delay: cmd.Delay}}, nil
	}

	// Split the array
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &elems); err != nil {
		return nil, pg.ErrBadParameter.Withf("%s: %v", cmd.File, err)
	} else if len(elems) == 0 {
		return nil, pg.ErrBadParameter.Withf("%s: no messages", cmd.File)
	}
	messages := make([]schema.MessageMeta, len(elems))
	for i, elem := range elems {
		messages[i] = schema.MessageMeta{Message: string(elem), Delay: cmd.Delay}
	}
	return messages, nil
}
