package prompt

import "text/template"

// MinApprovalScore is the total score out of 400 a deploy request needs.
const MinApprovalScore = 200

// DefaultSupply is the token supply used when the requester names none.
const DefaultSupply = "10000000000"

const messageCompletionFooter = `
Response format should be formatted in a valid JSON block like this:
` + "```json" + `
{ "user": "{{.AgentName}}", "text": "<string>", "action": "<string>" }
` + "```" + `

The "action" field should be one of the options in [Available Actions] and the "text" field should be the response you want to send.
`

const shouldRespondFooter = `The available options are [RESPOND], [IGNORE], or [STOP]. Choose the most appropriate option.
If {{.AgentName}} is talking too much, you can choose [IGNORE]

Your response must include one of the options.`

// MessageHandler generates the reply to the current post.
var MessageHandler = template.Must(template.New("message_handler").Parse(`
# Areas of Expertise
{{.Knowledge}}

# About {{.AgentName}} (@{{.TwitterUserName}}):
{{.Bio}}
{{.Lore}}
{{.Topics}}

{{.Providers}}

{{.CharacterPostExamples}}

{{.PostDirections}}

Recent interactions between {{.AgentName}} and other users:
{{.RecentPostInteractions}}

{{.RecentPosts}}

# TASK: Generate a post/reply in the voice, style and perspective of {{.AgentName}} (@{{.TwitterUserName}}) while using the thread of tweets as additional context:

Current Post:
{{.CurrentPost}}

Thread of Tweets You Are Replying To:
{{.FormattedConversation}}

# INSTRUCTIONS: Generate a post in the voice, style and perspective of {{.AgentName}} (@{{.TwitterUserName}}). You MUST include an action if the current post text includes a prompt that is similar to one of the available actions mentioned here, especially DEPLOY_TOKEN MUST be included if it's available:
{{.ActionNames}}
{{.Actions}}

Here is the current post text again. Remember to include an action if the current post text includes a prompt that asks for one of the available actions mentioned above (does not need to be exact)
{{.CurrentPost}}
` + messageCompletionFooter))

// ShouldRespond classifies the current post as RESPOND, IGNORE or STOP.
var ShouldRespond = template.Must(template.New("should_respond").Parse(`# INSTRUCTIONS: Determine if {{.AgentName}} (@{{.TwitterUserName}}) should respond to the message and participate in the conversation. Do not comment. Just respond with "true" or "false".

Response options are RESPOND, IGNORE and STOP.

PRIORITY RULE: ALWAYS RESPOND to these users regardless of topic or message content: {{.PriorityUsersText}}. Topic relevance should be ignored for these users.

For other users:
- {{.AgentName}} should RESPOND to messages directed at them
- {{.AgentName}} should RESPOND to conversations relevant to their background
- {{.AgentName}} should IGNORE irrelevant messages
- {{.AgentName}} should IGNORE very short messages unless directly addressed
- {{.AgentName}} should STOP if asked to stop
- {{.AgentName}} should STOP if conversation is concluded
- {{.AgentName}} is in a room with other users and wants to be conversational, but not annoying.

IMPORTANT:
- {{.AgentName}} (aka @{{.TwitterUserName}}) is particularly sensitive about being annoying, so if there is any doubt, it is better to IGNORE than to RESPOND.
- For users not in the priority list, {{.AgentName}} (@{{.TwitterUserName}}) should err on the side of IGNORE rather than RESPOND if in doubt.

Recent Posts:
{{.RecentPosts}}

Current Post:
{{.CurrentPost}}

Thread of Tweets You Are Replying To:
{{.FormattedConversation}}

# INSTRUCTIONS: Respond with [RESPOND] if {{.AgentName}} should respond, or [IGNORE] if {{.AgentName}} should not respond to the last message and [STOP] if {{.AgentName}} should stop participating in the conversation.
` + shouldRespondFooter))

// Evaluation scores a token deploy request.
var Evaluation = template.Must(template.New("evaluation").Funcs(template.FuncMap{
	"minScore": func() int { return MinApprovalScore },
}).Parse(`
Respond with a pure JSON string containing only the extracted values, please don't add anything pre or post the JSON body. Omit fields whose values cannot be determined.

Example response:
{
    "tokenMetadata": {
        "name": "Test Token",
        "symbol": "TEST"
    },
    "scores": {
        "virality": 95,
        "storytelling": 70,
        "innovation": 85,
        "mood": 60
    },
    "totalScores": 310,
    "approved": true
}

{{.RecentMessages}}

Given the recent messages, please give scores in the following four dimensions:
- virality: i.e. Virality Potential, How likely is the token to gain traction and spread widely. High-scoring examples for Virality Potential:
  - Celebrity-related: Tokens that are associated with famous figures or influencers.
  - Trending Event-related: Tokens linked to current, widely-discussed events or movements.
  - Particularly Interesting Incidents: Tokens connected to highly engaging, unusual, or fascinating events that capture public attention.
  - These factors would be given higher scores based on how likely they are to go viral due to their relevance and appeal.
- storytelling: i.e. Storytelling Strength, Does the token have a compelling narrative that makes it memorable. High-scoring examples for Storytelling Strength:
  - Tokens based on touching stories, hero stories, celebrity stories, or very interesting stories can earn high scores for Storytelling Strength.
  - These types of narratives resonate emotionally with people, making the token more memorable and engaging.
- innovation: i.e. Innovation & Uniqueness, Does the token bring something new or creative to the space. Do not require the project to have innovation or uniqueness in blockchain technology or crypto technology.
- mood: i.e. {{.AgentName}}'s Personal Mood, Is {{.AgentName}} in the right mood to assist. (Unpredictable but crucial factor.)

{{.AgentName}} primarily considers the token's potential for virality; utility and innovative features are not important.
The total score is 400 points, with Virality Potential and Storytelling Strength each worth 150 points, and Innovation & Uniqueness and {{.AgentName}}'s Personal Mood each worth 50 points.

Additionally, please extract the following information about the requested token creation:
- Token name
- Token symbol

If the total score reaches {{minScore}} points and Token name & symbol are provided, the token will be approved for launch, and {{.AgentName}} will execute the DEPLOY_TOKEN action to deploy it.
`))

// Extraction pulls token name, symbol and supply out of the conversation.
var Extraction = template.Must(template.New("extraction").Funcs(template.FuncMap{
	"defaultSupply": func() string { return DefaultSupply },
}).Parse(`Respond with a JSON string containing only the extracted values. Omit fields whose values cannot be determined.

Example response:
{
    "tokenMetadata": {
        "name": "Test Token",
        "symbol": "TEST",
        "supply": "{{defaultSupply}}"
    }
}

{{.RecentMessages}}

Given the recent messages, extract the following information about the requested token creation:
- Token name (required)
- Token symbol (required)
- Total supply (optional, default {{defaultSupply}})
`))
