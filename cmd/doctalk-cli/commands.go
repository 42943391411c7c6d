package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
)

var serverAddr string

var rootCmd = &cobra.Command{
	Use:   "doctalk-cli",
	Short: "A CLI client to interact with the DocTalk QA service",
	Long:  `A command-line interface for uploading PDF documents and asking questions about them over the DocTalk HTTP API.`,
}

var uploadCmd = &cobra.Command{
	Use:   "upload [file-path]",
	Short: "Upload a PDF and create a question room for it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetInt64("user")
		title, _ := cmd.Flags().GetString("title")
		filePath := args[0]
		if title == "" {
			title = filepath.Base(filePath)
		}
		return uploadPDF(filePath, title, userID)
	},
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question in a room",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, _ := cmd.Flags().GetInt64("room")
		return askQuestion(roomID, args[0])
	},
}

var roomsCmd = &cobra.Command{
	Use:   "rooms [user-id]",
	Short: "List the rooms belonging to a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id %q", args[0])
		}
		return getJSON(fmt.Sprintf("%s/api/v1/users/%d/rooms", serverAddr, userID))
	},
}

var messagesCmd = &cobra.Command{
	Use:   "messages [room-id]",
	Short: "Print a room's chat transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid room id %q", args[0])
		}
		return getJSON(fmt.Sprintf("%s/api/v1/rooms/%d/messages", serverAddr, roomID))
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [room-id]",
	Short: "Delete a room and all of its data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid room id %q", args[0])
		}
		return deleteRoom(roomID)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", "http://localhost:8080", "base URL of the QA service")

	uploadCmd.Flags().Int64("user", 1, "owner user id")
	uploadCmd.Flags().String("title", "", "room title (defaults to the file name)")
	askCmd.Flags().Int64("room", 0, "room id to ask in")
	_ = askCmd.MarkFlagRequired("room")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(roomsCmd)
	rootCmd.AddCommand(messagesCmd)
	rootCmd.AddCommand(deleteCmd)
}

// uploadPDF posts the file as a multipart form to /upsert-pdf.
func uploadPDF(filePath, title string, userID int64) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open %s: %w", filePath, err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("title", title); err != nil {
		return err
	}
	if err := writer.WriteField("user_id", strconv.FormatInt(userID, 10)); err != nil {
		return err
	}
	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	resp, err := http.Post(serverAddr+"/api/v1/upsert-pdf", writer.FormDataContentType(), &body)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()
	return printResponse(resp)
}

// askQuestion posts a JSON question to /query-pdf.
func askQuestion(roomID int64, question string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"room_id":  roomID,
		"question": question,
	})
	if err != nil {
		return err
	}

	resp, err := http.Post(serverAddr+"/api/v1/query-pdf", "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("query request failed: %w", err)
	}
	defer resp.Body.Close()
	return printResponse(resp)
}

func deleteRoom(roomID int64) error {
	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/v1/rooms/%d", serverAddr, roomID), nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		fmt.Printf("Room %d deleted.\n", roomID)
		return nil
	}
	return printResponse(resp)
}

func getJSON(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return printResponse(resp)
}

// printResponse pretty-prints a JSON response body and reports non-2xx
// statuses as errors.
func printResponse(resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var pretty bytes.Buffer
	if json.Indent(&pretty, data, "", "  ") == nil {
		fmt.Println(pretty.String())
	} else {
		fmt.Println(string(data))
	}

	if resp.StatusCode >= 300 {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}
