package chain

// quizAppABI covers the QuizApp contract methods the client calls.
const quizAppABI = `[
  {
    "type": "function",
    "name": "createQuiz",
    "stateMutability": "payable",
    "inputs": [
      {"name": "quizId", "type": "string"},
      {"name": "questionCount", "type": "uint256"},
      {"name": "rewardPerScore", "type": "uint256"}
    ],
    "outputs": []
  },
  {
    "type": "function",
    "name": "endQuiz",
    "stateMutability": "nonpayable",
    "inputs": [{"name": "quizIndex", "type": "uint256"}],
    "outputs": []
  },
  {
    "type": "function",
    "name": "joinQuiz",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "quizIndex", "type": "uint256"},
      {"name": "score", "type": "uint256"}
    ],
    "outputs": []
  },
  {
    "type": "function",
    "name": "getAllQuizzes",
    "stateMutability": "view",
    "inputs": [],
    "outputs": [
      {"name": "ids", "type": "uint256[]"},
      {"name": "qids", "type": "string[]"}
    ]
  }
]`
