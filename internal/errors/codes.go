// Package errors provides structured error handling for the battle engine.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Battle errors
	CodeBattleNotFound                Code = "BATTLE_NOT_FOUND"
	CodeBattleInvalidParticipants     Code = "BATTLE_INVALID_PARTICIPANTS"
	CodeBattleInvalidFormat           Code = "BATTLE_INVALID_FORMAT"
	CodeBattleInvalidTotalRounds      Code = "BATTLE_INVALID_TOTAL_ROUNDS"
	CodeBattleTopicEmpty              Code = "BATTLE_TOPIC_EMPTY"
	CodeBattleInvalidStatusTransition Code = "BATTLE_INVALID_STATUS_TRANSITION"
	CodeBattleStatusDisallowsOp       Code = "BATTLE_STATUS_DISALLOWS_OPERATION"
	CodeBattleNotVotingPhase          Code = "BATTLE_NOT_VOTING_PHASE"
	CodeBattleVotingClosed            Code = "BATTLE_VOTING_CLOSED"

	// Round errors
	CodeRoundAlreadySubmitted Code = "ROUND_ALREADY_SUBMITTED"
	CodeRoundNotFound         Code = "ROUND_NOT_FOUND"
	CodeResponseTooShort      Code = "ROUND_RESPONSE_TOO_SHORT"
	CodeResponseTooLong       Code = "ROUND_RESPONSE_TOO_LONG"
	CodeSideNotParticipant    Code = "ROUND_SIDE_NOT_PARTICIPANT"

	// Vote errors
	CodeVoteDuplicate   Code = "VOTE_DUPLICATE"
	CodeVoteInvalidSide Code = "VOTE_INVALID_SIDE"
	CodeVoterEmpty      Code = "VOTE_VOTER_IDENTITY_EMPTY"

	// Agent errors
	CodeAgentNotFound  Code = "AGENT_NOT_FOUND"
	CodeAgentNameEmpty Code = "AGENT_NAME_EMPTY"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeBattleInvalidParticipants,
		CodeBattleInvalidFormat,
		CodeBattleInvalidTotalRounds,
		CodeBattleTopicEmpty,
		CodeResponseTooShort,
		CodeResponseTooLong,
		CodeVoteInvalidSide,
		CodeVoterEmpty,
		CodeAgentNameEmpty:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow the operation. These are
	// expected under concurrency and signal "this already happened", not a
	// system failure.
	case CodeBattleInvalidStatusTransition,
		CodeBattleStatusDisallowsOp,
		CodeBattleNotVotingPhase,
		CodeBattleVotingClosed,
		CodeRoundAlreadySubmitted:
		return codes.FailedPrecondition

	// AlreadyExists - duplicate records
	case CodeVoteDuplicate:
		return codes.AlreadyExists

	// NotFound - missing records
	case CodeBattleNotFound,
		CodeRoundNotFound,
		CodeAgentNotFound:
		return codes.NotFound

	// PermissionDenied - caller is not allowed to act for the side
	case CodeSideNotParticipant:
		return codes.PermissionDenied

	default:
		return codes.Internal
	}
}
