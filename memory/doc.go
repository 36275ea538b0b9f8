// Package memory keeps per-plan agent conversation history.
//
// Agents append the messages they exchange with their model while working on
// a step. The executor calls ClearAgentMemory once a plan run finishes, so
// history never outlives the run that produced it:
//
//	conv := memory.NewConversations()
//	conv.Append(ctx, planID, memory.Message{Role: memory.RoleUser, Content: "scan the host"})
//	history, _ := conv.History(ctx, planID)
package memory
