// Package llm provides a provider-agnostic LLM client SDK.
//
// Design goals:
//   - Stable domain model: callers build requests using canonical types
//     (ChatRequest, Message, Tool) that never leak a vendor wire format.
//   - Narrow capabilities: each operation (chat, streaming, completion,
//     tools, embeddings, images, speech) is its own small interface, and a
//     provider implements only what its backend supports.
//   - Uniform failures: every provider error carries an ErrorKind, and
//     retryability is derived from the kind alone.
//   - Explicit streaming: providers feed raw transport frames through
//     NewNormalizedStream, and callers pull StreamChunk values until the
//     single final chunk; ceasing to pull is cancellation.
//
// Provider implementations live under llm/providers and are responsible for
// mapping between the canonical model and each vendor's wire format.
package llm
